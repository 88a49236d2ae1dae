package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlags lets each flag override the config key of the same name when
// it is set on the command line.
func bindFlags(v *viper.Viper, flags ...*pflag.Flag) {
	for _, f := range flags {
		if f == nil {
			continue
		}
		_ = v.BindPFlag(f.Name, f)
	}
}
