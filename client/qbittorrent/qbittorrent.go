package qbittorrent

// qb web API: https://github.com/qbittorrent/qBittorrent/wiki/WebUI-API-(qBittorrent-4.1)

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"net/url"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"golang.org/x/net/publicsuffix"

	"github.com/sagan/auxseed/client"
	"github.com/sagan/auxseed/config"
	"github.com/sagan/auxseed/constants"
	"github.com/sagan/auxseed/util"
)

type apiTorrentInfo struct {
	Hash     string `json:"hash"`
	Name     string `json:"name"`
	SavePath string `json:"save_path"`
}

type Client struct {
	Name         string
	ClientConfig *config.ClientConfigStruct
	Config       *config.ConfigStruct
	HttpClient   *http.Client
	mu           sync.Mutex
	Logined      bool
}

func (qbclient *Client) apiPost(apiUrl string, data url.Values) error {
	log.Tracef("qb apiPost %s data=%v", apiUrl, data)
	resp, err := qbclient.HttpClient.PostForm(qbclient.ClientConfig.Url+apiUrl, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if string(body) == "Fails." {
		return fmt.Errorf("apiPost error: Fails")
	}
	if resp.StatusCode != 200 {
		return fmt.Errorf("apiPost error: status=%d", resp.StatusCode)
	}
	return nil
}

func (qbclient *Client) apiRequest(apiPath string, v any) error {
	resp, err := qbclient.HttpClient.Get(qbclient.ClientConfig.Url + apiPath)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return fmt.Errorf("apiRequest %s response %d status", apiPath, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if v != nil {
		return json.Unmarshal(body, v)
	}
	return nil
}

func (qbclient *Client) login() error {
	qbclient.mu.Lock()
	defer qbclient.mu.Unlock()
	if qbclient.Logined {
		return nil
	}
	username := qbclient.ClientConfig.Username
	password := qbclient.ClientConfig.Password
	// use qb default
	if username == "" {
		username = "admin"
	}
	if username == "admin" && password == "" {
		password = "adminadmin"
	}
	data := url.Values{
		"username": {username},
		"password": {password},
	}
	err := qbclient.apiPost("api/v2/auth/login", data)
	if err == nil {
		qbclient.Logined = true
	}
	return err
}

func (qbclient *Client) GetName() string {
	return qbclient.Name
}

func (qbclient *Client) GetClientConfig() *config.ClientConfigStruct {
	return qbclient.ClientConfig
}

func (qbclient *Client) GetInfoHashes() ([]string, error) {
	if err := qbclient.login(); err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}
	var torrents []apiTorrentInfo
	if err := qbclient.apiRequest("api/v2/torrents/info", &torrents); err != nil {
		return nil, err
	}
	return util.Map(torrents, func(t apiTorrentInfo) string {
		return strings.ToLower(t.Hash)
	}), nil
}

func (qbclient *Client) AddTorrent(torrentContent []byte, option *client.TorrentOption) error {
	err := qbclient.login()
	if err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	body := new(bytes.Buffer)
	mp := multipart.NewWriter(body)
	// see https://stackoverflow.com/questions/21130566/how-to-set-content-type-for-a-form-filed-using-multipart-in-go
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="torrents"; filename="file`+constants.TORRENT_FILE_EXT+`"`)
	h.Set("Content-Type", constants.TORRENT_FILE_MIME_TYPE)
	torrentPartWriter, err := mp.CreatePart(h)
	if err != nil {
		return err
	}
	torrentPartWriter.Write(torrentContent)
	if option != nil {
		mp.WriteField("paused", fmt.Sprint(option.Pause))
		mp.WriteField("stopped", fmt.Sprint(option.Pause)) // qb 5.0+
		if option.SavePath != "" {
			mp.WriteField("savepath", option.SavePath)
			mp.WriteField("autoTMM", "false")
		}
	}
	if err = mp.Close(); err != nil {
		return err
	}
	resp, err := qbclient.HttpClient.Post(qbclient.ClientConfig.Url+"api/v2/torrents/add",
		mp.FormDataContentType(), body)
	if err != nil {
		return fmt.Errorf("add torrent error: %w", err)
	}
	defer resp.Body.Close()
	res, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 {
		return fmt.Errorf("add torrent error: status=%d", resp.StatusCode)
	}
	if string(res) == "Fails." {
		return fmt.Errorf("add torrent error: Fails")
	}
	return nil
}

func (qbclient *Client) RenameFile(infoHash string, oldPath string, newPath string) error {
	return qbclient.rename("api/v2/torrents/renameFile", infoHash, oldPath, newPath)
}

func (qbclient *Client) RenameFolder(infoHash string, oldPath string, newPath string) error {
	return qbclient.rename("api/v2/torrents/renameFolder", infoHash, oldPath, newPath)
}

func (qbclient *Client) rename(apiUrl string, infoHash string, oldPath string, newPath string) error {
	if err := qbclient.login(); err != nil {
		return fmt.Errorf("login error: %w", err)
	}
	data := url.Values{
		"hash":    {infoHash},
		"oldPath": {strings.TrimSuffix(oldPath, "/")},
		"newPath": {strings.TrimSuffix(newPath, "/")},
	}
	return qbclient.apiPost(apiUrl, data)
}

func (qbclient *Client) Close() {
	qbclient.mu.Lock()
	defer qbclient.mu.Unlock()
	if qbclient.Logined {
		qbclient.Logined = false
		qbclient.apiPost("api/v2/auth/logout", nil)
	}
}

func NewClient(name string, clientConfig *config.ClientConfigStruct, config *config.ConfigStruct) (client.Client, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	client := &Client{
		Name:         name,
		ClientConfig: clientConfig,
		Config:       config,
		HttpClient: &http.Client{
			Jar: jar,
		},
	}
	return client, nil
}

func init() {
	client.Register(&client.RegInfo{
		Name:    "qbittorrent",
		Creator: NewClient,
	})
}

var (
	_ client.Client = (*Client)(nil)
)
