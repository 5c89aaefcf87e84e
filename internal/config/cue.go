package config

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// schema constrains CUE config files and supplies their defaults.
const schema = `
#Config: {
	threshold:       *8 | int & >=0
	width:           *6 | int & >=1
	dir:             *"." | string
	shard_prefix:    *"SHARD_" | (string & !="")
	artifact_prefix: *"master_permutations_" | (string & !="")
	workers:         *1 | int & >=1
	strategy:        *"auto" | "recursive" | "iterative"
	normalize:       *false | bool
	resume:          *false | bool
	database:        *"" | string
}
`

func decodeCUE(path string, data []byte) (Config, error) {
	ctx := cuecontext.New()

	def := ctx.CompileString(schema, cue.Filename("config-schema.cue")).LookupPath(cue.ParsePath("#Config"))
	if err := def.Err(); err != nil {
		return Config{}, fmt.Errorf("compile schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return Config{}, formatCUEError(err)
	}

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Config{}, formatCUEError(err)
	}

	var cfg Config
	if err := unified.Decode(&cfg); err != nil {
		return Config{}, formatCUEError(err)
	}
	return cfg, nil
}

// formatCUEError flattens a CUE error list into one message with positions.
func formatCUEError(err error) error {
	return fmt.Errorf("cue: %s", errors.Details(err, nil))
}
