package driver

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/dstrick/go-bsdiff/pkg/bserr"
)

// lowMemEnvVar is the only environment variable this module reads. The
// teacher's JULIA_BSDIFF_LOWMEM name is retired in favor of this one.
const lowMemEnvVar = "BSDIFF_LOWMEM"

var truthy = map[string]bool{
	"1": true, "true": true, "t": true, "yes": true, "y": true,
	"0": false, "false": false, "f": false, "no": false, "n": false,
}

// LowMemFromEnv reads BSDIFF_LOWMEM once at startup and reports whether
// low-memory mode was requested. An unset variable means false. Any value
// other than the recognized truthy/falsy set is a hard ConfigError, per
// spec.
func LowMemFromEnv() (bool, error) {
	v := viper.New()
	if err := v.BindEnv("lowmem", lowMemEnvVar); err != nil {
		return false, bserr.Wrap(bserr.ConfigError, "binding "+lowMemEnvVar, err)
	}

	raw := v.GetString("lowmem")
	if raw == "" {
		return false, nil
	}

	b, ok := truthy[strings.ToLower(raw)]
	if !ok {
		return false, bserr.Newf(bserr.ConfigError, "%s=%q is not a recognized boolean value", lowMemEnvVar, raw)
	}
	return b, nil
}

// levelForLowMem picks the bzip2 compression level the codecs should use:
// DefaultLevel normally, LowMemLevel when lowMem is set.
func levelForLowMem(lowMem bool, defaultLevel, lowMemLevel int) int {
	if lowMem {
		return lowMemLevel
	}
	return defaultLevel
}
