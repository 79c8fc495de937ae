package all

import (
	_ "github.com/sagan/auxseed/cmd"
	_ "github.com/sagan/auxseed/cmd/configcmd"
	_ "github.com/sagan/auxseed/cmd/lookup"
	_ "github.com/sagan/auxseed/cmd/parsetorrent"
	_ "github.com/sagan/auxseed/cmd/run"
	_ "github.com/sagan/auxseed/cmd/update"
	_ "github.com/sagan/auxseed/cmd/versioncmd"
)
