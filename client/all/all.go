package all

import (
	_ "github.com/sagan/auxseed/client/qbittorrent"
	_ "github.com/sagan/auxseed/client/transmission"
)
