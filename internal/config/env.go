package config

import "strings"

// envKeyReplacer maps dotted config keys onto env-var segments.
var envKeyReplacer = strings.NewReplacer(".", "_")
