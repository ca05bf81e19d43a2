package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/property-annotator/constants"
	"github.com/joseph-ayodele/property-annotator/internal/entity"
)

// LoadTasks builds labeling tasks from command-line inputs. Each input is a
// task file (one task object or an array of them), a directory searched
// recursively for task descriptors, or a page image. Loose images are
// grouped into one extra task in argument order.
func LoadTasks(inputs []string) ([]entity.Task, error) {
	var tasks []entity.Task
	var loose []string
	for _, in := range inputs {
		st, err := os.Stat(in)
		if err != nil {
			return nil, err
		}
		if st.IsDir() {
			files, _, err := ScanDirectory(in, ScanOptions{
				Exts:       map[string]struct{}{"json": {}},
				SkipHidden: true,
				Recursive:  true,
			})
			if err != nil {
				return nil, err
			}
			for _, f := range files {
				if filepath.Base(f) != constants.TaskFileName {
					continue
				}
				ts, err := ReadTaskFile(f)
				if err != nil {
					return nil, err
				}
				tasks = append(tasks, ts...)
			}
			continue
		}
		ext := filepath.Ext(in)
		switch {
		case constants.NormalizeExt(ext) == "json":
			ts, err := ReadTaskFile(in)
			if err != nil {
				return nil, err
			}
			tasks = append(tasks, ts...)
		case constants.MapExtToFormat(ext) == constants.IMAGE:
			abs, err := filepath.Abs(in)
			if err != nil {
				return nil, err
			}
			loose = append(loose, abs)
		default:
			return nil, fmt.Errorf("unsupported input %q", in)
		}
	}
	if len(loose) > 0 {
		tasks = append(tasks, entity.Task{Data: entity.TaskData{Pages: loose}})
	}
	return tasks, nil
}

// ReadTaskFile decodes a task descriptor holding one task or a list of tasks.
func ReadTaskFile(path string) ([]entity.Task, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '[' {
		var ts []entity.Task
		if err := json.Unmarshal(raw, &ts); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return ts, nil
	}
	var t entity.Task
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return []entity.Task{t}, nil
}
