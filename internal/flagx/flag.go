// Package flagx holds small helpers for sharing os.Args between several
// independent flag sets (config file discovery, server flags, CLI flags).
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs returns only the arguments whose flag name is listed in
// allowedFlags, together with their values.
//
// Both "-x value" and "-x=value" are recognised. A double-dash spelling
// ("--x") matches an allowed "-x" and is passed through as "-x" so the
// standard flag package sees a single canonical form.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[canonical(f)] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if !strings.HasPrefix(arg, "-") {
			continue
		}

		if name, value, ok := strings.Cut(arg, "="); ok {
			if _, known := allowed[canonical(name)]; known {
				filtered = append(filtered, canonical(name)+"="+value)
			}
			continue
		}

		if _, known := allowed[canonical(arg)]; !known {
			continue
		}
		filtered = append(filtered, canonical(arg))
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

func canonical(name string) string {
	if strings.HasPrefix(name, "--") {
		return name[1:]
	}
	return name
}

// JsonConfigFlags extracts the config file path passed with -c or -config.
// Other arguments are ignored. An empty string means no file was given.
func JsonConfigFlags() string {
	return JsonConfigPath(os.Args[1:])
}

// JsonConfigPath is JsonConfigFlags over an explicit argument list.
func JsonConfigPath(args []string) string {
	var config string

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(FilterArgs(args, []string{"-c", "-config"}))

	return config
}
