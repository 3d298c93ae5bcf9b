package glossary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultFilenames are looked up, in order, by FindInAncestors.
var DefaultFilenames = []string{"glossary.yaml", "glossary.yml", "glossary.json"}

// FindInAncestors walks up from startDir looking for a glossary file.
// Returns the first found path or empty string.
func FindInAncestors(startDir string) string {
	currentDir := startDir

	for {
		for _, name := range DefaultFilenames {
			candidate := filepath.Join(currentDir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			break
		}
		currentDir = parentDir
	}

	return ""
}

// Load reads a glossary from a JSON or YAML file, chosen by extension.
func Load(path string) (Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := Parse(data, isYAML(path))
	if err != nil {
		return nil, fmt.Errorf("parse glossary %s: %w", path, err)
	}
	return g, nil
}

// Parse decodes glossary data. Both a list of {source, target} entries and a
// plain source→target object are accepted; object keys are sorted so the
// resulting order is stable.
func Parse(data []byte, asYAML bool) (Glossary, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Glossary{}, nil
	}

	var list Glossary
	var object map[string]string
	if asYAML {
		if err := yaml.Unmarshal(data, &list); err != nil {
			if err := yaml.Unmarshal(data, &object); err != nil {
				return nil, err
			}
			return fromObject(object), nil
		}
		return clean(list), nil
	}

	if data[0] == '{' {
		if err := json.Unmarshal(data, &object); err != nil {
			return nil, err
		}
		return fromObject(object), nil
	}
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return clean(list), nil
}

// Save writes the glossary as an indented JSON list or YAML list.
func Save(path string, g Glossary) error {
	if g == nil {
		g = Glossary{}
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(g)
	} else {
		data, err = json.MarshalIndent(g, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func fromObject(object map[string]string) Glossary {
	keys := make([]string, 0, len(object))
	for k := range object {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ret := make(Glossary, 0, len(keys))
	for _, k := range keys {
		ret = append(ret, Entry{Source: k, Target: object[k]})
	}
	return clean(ret)
}

func clean(g Glossary) Glossary {
	ret := make(Glossary, 0, len(g))
	for _, e := range g {
		e.Source = strings.TrimSpace(e.Source)
		e.Target = strings.TrimSpace(e.Target)
		if e.Source == "" {
			continue
		}
		ret = append(ret, e)
	}
	return ret
}
