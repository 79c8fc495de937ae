package constants

const (
	TORRENT_FILE_EXT       = ".torrent"
	TORRENT_FILE_MIME_TYPE = "application/x-bittorrent"
	// A .torrent file is a bencoded dictionary.
	// See: https://en.wikipedia.org/wiki/Torrent_file , https://en.wikipedia.org/wiki/Bencode .
	TORRENT_FILE_MAGIC_BYTE = 'd'
)
