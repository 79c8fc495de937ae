// Package xseed finds torrents on a tracker that describe content already
// present in a local source folder and registers them with a BitTorrent client
// so the content can be seeded under every matching torrent.
package xseed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/sagan/auxseed/client"
	"github.com/sagan/auxseed/reconcile"
	"github.com/sagan/auxseed/sizeindex"
	"github.com/sagan/auxseed/torrentcache"
	"github.com/sagan/auxseed/torrentutil"
)

const (
	DEFAULT_FETCH_CONCURRENCY = 5
	DEFAULT_TASK_CONCURRENCY  = 8
)

var (
	ErrNoFetcher = errors.New("torrent is not cached and no site is configured")
)

// Fetcher downloads a torrent from the tracker by its id.
type Fetcher interface {
	DownloadTorrentById(ctx context.Context, id string) ([]byte, error)
}

type Options struct {
	// Consulted before Fetcher. Optional.
	Cache    *torrentcache.Cache
	Engine   *reconcile.Engine
	Denylist sizeindex.Denylist
	// Width of the gate in front of Fetcher.
	FetchConcurrency int64
	// Source entries processed at the same time.
	TaskConcurrency int
	// Match only: nothing is sent to client.
	DryRun bool
}

// Session is one cross-seeding run. It owns a read-only snapshot of the size
// index and of the client's torrents, taken when the session is created.
type Session struct {
	index        *sizeindex.Index
	client       client.Client
	fetcher      Fetcher
	cache        *torrentcache.Cache
	engine       *reconcile.Engine
	denylist     sizeindex.Denylist
	dryRun       bool
	taskLimit    int
	gate         *semaphore.Weighted
	clientHashes map[string]struct{}
}

// NewSession snapshots the client's torrents. fetcher may be nil if every
// torrent is expected to be in the cache.
func NewSession(index *sizeindex.Index, btclient client.Client, fetcher Fetcher, opts Options) (*Session, error) {
	infoHashes, err := btclient.GetInfoHashes()
	if err != nil {
		return nil, fmt.Errorf("failed to get client %s torrents: %w", btclient.GetName(), err)
	}
	clientHashes := map[string]struct{}{}
	for _, infoHash := range infoHashes {
		clientHashes[strings.ToLower(infoHash)] = struct{}{}
	}
	log.Infof("Client %s has %d torrents", btclient.GetName(), len(clientHashes))
	if opts.Engine == nil {
		opts.Engine = reconcile.New(reconcile.DefaultOptions())
	}
	if opts.FetchConcurrency <= 0 {
		opts.FetchConcurrency = DEFAULT_FETCH_CONCURRENCY
	}
	if opts.TaskConcurrency <= 0 {
		opts.TaskConcurrency = DEFAULT_TASK_CONCURRENCY
	}
	return &Session{
		index:        index,
		client:       btclient,
		fetcher:      fetcher,
		cache:        opts.Cache,
		engine:       opts.Engine,
		denylist:     opts.Denylist,
		dryRun:       opts.DryRun,
		taskLimit:    opts.TaskConcurrency,
		gate:         semaphore.NewWeighted(opts.FetchConcurrency),
		clientHashes: clientHashes,
	}, nil
}

// Run processes every entry directly under srcPath. A failure in one entry is
// recorded in its Result and does not affect the others.
func (s *Session) Run(ctx context.Context, srcPath string) (*Report, error) {
	entries, err := os.ReadDir(srcPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read source folder: %w", err)
	}
	report := &Report{Results: make([]*Result, len(entries))}
	errg := &errgroup.Group{}
	errg.SetLimit(s.taskLimit)
	for i, entry := range entries {
		i := i
		path := filepath.Join(srcPath, entry.Name())
		errg.Go(func() error {
			report.Results[i] = s.Process(ctx, path)
			return nil
		})
	}
	errg.Wait()
	return report, nil
}

// Process cross-seeds a single source entry, a file or a folder.
func (s *Session) Process(ctx context.Context, path string) *Result {
	result := &Result{Path: path}
	stat, err := os.Stat(path)
	if err != nil {
		result.State = StateFailed
		result.Err = err
		log.Errorf("Failed to read %s: %v", path, err)
		return result
	}
	if stat.IsDir() {
		result.IsDir = true
		s.processFolder(ctx, path, result)
	} else if stat.Mode().IsRegular() {
		s.processFile(ctx, path, stat.Size(), result)
	} else {
		result.State = StateNoCandidate
	}
	result.finish()
	return result
}

func (s *Session) processFile(ctx context.Context, path string, size int64, result *Result) {
	result.Size = size
	candidates := s.index.LookupSize(size)
	if len(candidates) == 0 {
		log.Debugf("%s cannot be cross-seeded", path)
		result.State = StateNoCandidate
		return
	}
	for _, candidate := range candidates {
		candidateLog(path, candidate).Info("Try candidate")
		cr := &CandidateResult{TorrentId: candidate.TorrentId, InfoHash: candidate.InfoHash}
		result.addCandidate(cr)
		if s.inClient(candidate.InfoHash) {
			log.Debugf("%s -> torrent %s already added", path, candidate.TorrentId)
			cr.Status = CandidateExisting
			continue
		}
		torrent := s.load(ctx, candidate, cr)
		if torrent == nil {
			continue
		}
		match, err := s.engine.MatchFile(path, size, torrent.Info)
		if err != nil {
			reject(cr, err)
			continue
		}
		s.apply(torrent, match, cr)
	}
}

// processFolder tries every torrent of the folder's representative size. After
// a torrent is applied, its files are set aside and the remaining files are
// looked up again, until nothing remains, no torrent is found, or an
// iteration accounts for no file.
func (s *Session) processFolder(ctx context.Context, path string, result *Result) {
	fileset, err := reconcile.ScanFileSet(path)
	if err != nil {
		result.State = StateFailed
		result.Err = err
		log.Errorf("Failed to read %s: %v", path, err)
		return
	}
	result.Size = sizeindex.RepresentativeSize(fileset.Sizes(), s.denylist)
	candidates := s.index.LookupSize(result.Size)
	if fileset.Len() == 0 || len(candidates) == 0 {
		log.Debugf("%s cannot be cross-seeded", path)
		result.State = StateNoCandidate
		return
	}
	tried := map[string]bool{}
	for _, candidate := range candidates {
		if s.inClient(candidate.InfoHash) {
			log.Debugf("%s -> torrent %s already added", path, candidate.TorrentId)
			result.addCandidate(&CandidateResult{
				TorrentId: candidate.TorrentId,
				InfoHash:  candidate.InfoHash,
				Status:    CandidateExisting,
			})
			continue
		}
		if tried[candidate.InfoHash] {
			continue
		}
		s.residualLoop(ctx, path, fileset.Clone(), candidate, tried, result)
	}
}

func (s *Session) residualLoop(ctx context.Context, path string, files *reconcile.FileSet,
	candidate sizeindex.Entry, tried map[string]bool, result *Result) {
	for {
		tried[candidate.InfoHash] = true
		before := files.Len()
		candidateLog(path, candidate).WithField("remaining", before).Info("Try candidate")
		cr := &CandidateResult{TorrentId: candidate.TorrentId, InfoHash: candidate.InfoHash}
		result.addCandidate(cr)
		if torrent := s.load(ctx, candidate, cr); torrent != nil {
			if match, err := s.engine.MatchFolder(path, files, torrent.Info); err != nil {
				reject(cr, err)
			} else if s.apply(torrent, match, cr) {
				files.Remove(match.Attributed...)
			}
		}
		if files.Len() == 0 {
			return
		}
		if files.Len() == before {
			log.Debugf("%s: no progress, %d files left", path, files.Len())
			return
		}
		size := sizeindex.RepresentativeSize(files.Sizes(), s.denylist)
		next := -1
		candidates := s.index.LookupSize(size)
		for i, c := range candidates {
			if !tried[c.InfoHash] && !s.inClient(c.InfoHash) {
				next = i
				break
			}
		}
		if next == -1 {
			log.Debugf("%s: no torrent for the remaining %d files (size %d)", path, files.Len(), size)
			return
		}
		candidate = candidates[next]
	}
}

func candidateLog(path string, candidate sizeindex.Entry) *log.Entry {
	return log.WithFields(log.Fields{
		"path":     path,
		"torrent":  candidate.TorrentId,
		"infohash": candidate.InfoHash,
	})
}

func (s *Session) inClient(infoHash string) bool {
	_, ok := s.clientHashes[infoHash]
	return ok
}

// load returns nil if the torrent could not be obtained or decoded; the reason
// is recorded in cr.
func (s *Session) load(ctx context.Context, candidate sizeindex.Entry, cr *CandidateResult) *torrentutil.Torrent {
	content, err := s.fetch(ctx, candidate)
	if err != nil {
		log.Errorf("Failed to get torrent %s: %v", candidate.TorrentId, err)
		cr.Status = CandidateFailed
		cr.Err = err
		return nil
	}
	torrent, err := torrentutil.Load(content)
	if err != nil {
		log.Errorf("Torrent %s is invalid: %v", candidate.TorrentId, err)
		cr.Status = CandidateInvalid
		cr.Err = err
		return nil
	}
	if torrent.InfoHash != candidate.InfoHash {
		log.Warnf("Torrent %s info hash is %s, index says %s", candidate.TorrentId, torrent.InfoHash, candidate.InfoHash)
		cr.InfoHash = torrent.InfoHash
	}
	return torrent
}

func (s *Session) fetch(ctx context.Context, candidate sizeindex.Entry) ([]byte, error) {
	if s.cache != nil {
		if content, ok := s.cache.Get(candidate.InfoHash); ok {
			return content, nil
		}
	}
	if s.fetcher == nil {
		return nil, ErrNoFetcher
	}
	if err := s.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.gate.Release(1)
	content, err := s.fetcher.DownloadTorrentById(ctx, candidate.TorrentId)
	if err != nil {
		return nil, err
	}
	log.Infof("Downloaded .torrent file of torrent %s", candidate.TorrentId)
	return content, nil
}

func reject(cr *CandidateResult, err error) {
	log.Infof("Torrent %s does not match: %v", cr.TorrentId, err)
	cr.Status = CandidateRejected
	cr.Err = err
}

// apply adds the torrent paused and issues the renames. It reports whether
// the torrent was added; rename failures are only logged.
func (s *Session) apply(torrent *torrentutil.Torrent, match *reconcile.Match, cr *CandidateResult) bool {
	cr.SavePath = match.SavePath
	cr.Renames = match.Renames
	cr.Attributed = len(match.Attributed)
	if s.dryRun {
		log.Warnf("Dry-run: add torrent %s to %s, renames: %v", cr.TorrentId, match.SavePath, match.Renames)
		cr.Status = CandidateAdded
		return true
	}
	err := s.client.AddTorrent(torrent.Content, &client.TorrentOption{
		SavePath: match.SavePath,
		Pause:    true,
	})
	if err != nil {
		log.Errorf("Failed to add torrent %s to client: %v", cr.TorrentId, err)
		cr.Status = CandidateFailed
		cr.Err = err
		return false
	}
	log.Infof("Add torrent %s (%s) -> %s", cr.TorrentId, torrent.InfoHash, match.SavePath)
	cr.Status = CandidateAdded
	for _, rename := range match.Renames {
		from := strings.TrimSuffix(rename.From, "/")
		to := strings.TrimSuffix(rename.To, "/")
		target := filepath.Join(match.SavePath, filepath.FromSlash(to))
		if stat, err := os.Stat(target); err == nil && stat.Mode().IsRegular() {
			err = s.client.RenameFile(torrent.InfoHash, from, to)
			if err != nil {
				log.Errorf("Failed to rename file of torrent %s, %s -> %s: %v", cr.TorrentId, from, to, err)
				cr.RenameErrors++
			} else {
				log.Infof("Rename file of torrent %s, %s -> %s", cr.TorrentId, from, to)
			}
		} else {
			err = s.client.RenameFolder(torrent.InfoHash, from, to)
			if err != nil {
				log.Errorf("Failed to rename folder of torrent %s, %s -> %s: %v", cr.TorrentId, from, to, err)
				cr.RenameErrors++
			} else {
				log.Infof("Rename folder of torrent %s, %s -> %s", cr.TorrentId, from, to)
			}
		}
	}
	return true
}
