package all

import (
	_ "github.com/sagan/auxseed/site/nexusphp"
	_ "github.com/sagan/auxseed/site/tpl"
)
