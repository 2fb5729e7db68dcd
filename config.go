package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

// configFile is the optional file given with -config. Every setting in it can also be made on
// the command line, except for the ones that only make sense in a file (environment, working
// directory, timeouts). Command-line flags win over the file.
type configFile struct {
	Service struct {
		Path        string            `json:"path"`
		Args        []string          `json:"args"`
		Port        int               `json:"port"`
		Secret      string            `json:"secret"`
		Env         map[string]string `json:"env"`
		Dir         string            `json:"dir"`
		StopTimeout duration          `json:"stopTimeout"`
		HideOutput  []string          `json:"hideOutput"`
	} `json:"service"`
	MockPort  int `json:"mockPort"`
	Readiness struct {
		Interval     duration `json:"interval"`
		MaxAttempts  int      `json:"maxAttempts"`
		ProbeTimeout duration `json:"probeTimeout"`
	} `json:"readiness"`
	RequestTimeout duration `json:"requestTimeout"`
	Run            []string `json:"run"`
	Skip           []string `json:"skip"`
}

// duration accepts either a Go duration string such as "500ms" or a number of milliseconds.
type duration time.Duration

func (d *duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*d = duration(parsed)
		return nil
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("duration must be a string like \"2s\" or a number of milliseconds, not %s", string(data))
	}
	*d = duration(time.Duration(ms) * time.Millisecond)
	return nil
}

func loadConfigFile(path string) (configFile, error) {
	var ret configFile
	data, err := os.ReadFile(path)
	if err != nil {
		return ret, err
	}
	if err := parseJSONOrYAML(data, &ret); err != nil {
		return ret, fmt.Errorf("cannot parse %s: %w", path, err)
	}
	return ret, nil
}

// environment returns the Env map as KEY=VALUE strings in a stable order.
func (c configFile) environment() []string {
	keys := maps.Keys(c.Service.Env)
	slices.Sort(keys)
	ret := make([]string, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, k+"="+c.Service.Env[k])
	}
	return ret
}

// parseJSONOrYAML is used in the same way as json.Unmarshal, but if the data is YAML and not
// JSON, it converts the YAML to JSON first so that the same struct tags apply.
func parseJSONOrYAML(data []byte, target any) error {
	if err := json.Unmarshal(data, target); err == nil {
		return nil
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}
	normalized, err := normalizeYAMLForJSON(raw)
	if err != nil {
		return err
	}
	jsonData, err := json.Marshal(normalized)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonData, target)
}

func normalizeYAMLForJSON(data any) (any, error) {
	switch data := data.(type) {
	case []any:
		out := make([]any, 0, len(data))
		for _, v := range data {
			v1, err := normalizeYAMLForJSON(v)
			if err != nil {
				return nil, err
			}
			out = append(out, v1)
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(data))
		for k, v := range data {
			v1, err := normalizeYAMLForJSON(v)
			if err != nil {
				return nil, err
			}
			out[k] = v1
		}
		return out, nil
	case map[any]any:
		out := make(map[string]any, len(data))
		for k, v := range data {
			key, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("YAML data contained a map key of type %T; only string keys are allowed", k)
			}
			v1, err := normalizeYAMLForJSON(v)
			if err != nil {
				return nil, err
			}
			out[key] = v1
		}
		return out, nil
	default:
		return data, nil
	}
}
