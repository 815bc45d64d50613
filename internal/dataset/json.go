package dataset

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/dbsmedya/gobalance/internal/types"
)

// objectCountKey is the bookkeeping entry some parsers store next to the objects.
const objectCountKey = "num_obj"

// JSONSource reads a dataset file of the form
//
//	{"<image>": {"objects": {"num_obj": 1, "0": {"name": "person", ...}}, ...}, ...}
//
// Record order follows the file. "objects" may also be an array of object entries.
type JSONSource struct {
	Path string
}

// Load implements Source.
func (s *JSONSource) Load() (*types.Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	ds, err := ReadJSON(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", s.Path, err)
	}
	return ds, nil
}

// ReadJSON decodes a dataset, keeping record order.
func ReadJSON(r io.Reader) (*types.Dataset, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &MalformedDatasetError{Reason: "top level must be an object keyed by record"}
	}

	ds := types.NewDataset()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("record %q: %w", key, err)
		}

		rec, err := decodeRecord(key, raw)
		if err != nil {
			return nil, err
		}
		if err := ds.Add(rec); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return ds, nil
}

func decodeRecord(key string, raw json.RawMessage) (*types.Record, error) {
	var body struct {
		Objects   json.RawMessage `json:"objects"`
		ImagePath string          `json:"img_path"`
		LabelPath string          `json:"label_path"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &MalformedDatasetError{Key: key, Reason: err.Error()}
	}

	rec := &types.Record{Key: key, Raw: raw, ImagePath: body.ImagePath, LabelPath: body.LabelPath}
	trimmed := bytes.TrimSpace(body.Objects)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		// Left nil so BuildIndex reports the missing container.
		return rec, nil
	}

	entries, err := objectEntries(trimmed)
	if err != nil {
		return nil, &MalformedDatasetError{Key: key, Reason: err.Error()}
	}

	rec.Objects = make([]types.Annotation, 0, len(entries))
	for _, entry := range entries {
		var obj struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(entry, &obj); err != nil {
			return nil, &MalformedDatasetError{Key: key, Reason: fmt.Sprintf("object entry: %v", err)}
		}
		rec.Objects = append(rec.Objects, types.Annotation{Name: obj.Name, Raw: entry})
	}
	return rec, nil
}

func objectEntries(objects json.RawMessage) ([]json.RawMessage, error) {
	if objects[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(objects, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var byIndex map[string]json.RawMessage
	if err := json.Unmarshal(objects, &byIndex); err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(byIndex))
	for k := range byIndex {
		if k == objectCountKey {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	list := make([]json.RawMessage, 0, len(keys))
	for _, k := range keys {
		list = append(list, byIndex[k])
	}
	return list, nil
}

// WriteJSON writes ds in the JSONSource layout, one record per line, in dataset order.
// Records that came from a JSON file are written back byte-for-byte.
func WriteJSON(w io.Writer, ds *types.Dataset) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("{"); err != nil {
		return err
	}

	for i, rec := range ds.Records() {
		key, err := json.Marshal(rec.Key)
		if err != nil {
			return err
		}
		body := rec.Raw
		if body == nil {
			if body, err = synthesizeRecord(rec); err != nil {
				return fmt.Errorf("record %q: %w", rec.Key, err)
			}
		}

		sep := ",\n"
		if i == 0 {
			sep = "\n"
		}
		bw.WriteString(sep)
		bw.Write(key)
		bw.WriteString(": ")
		bw.Write(body)
	}

	if _, err := bw.WriteString("\n}\n"); err != nil {
		return err
	}
	return bw.Flush()
}

// WriteJSONFile writes ds to path.
func WriteJSONFile(path string, ds *types.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create dataset file: %w", err)
	}
	if err := WriteJSON(f, ds); err != nil {
		f.Close()
		return fmt.Errorf("failed to write dataset %s: %w", path, err)
	}
	return f.Close()
}

func synthesizeRecord(rec *types.Record) (json.RawMessage, error) {
	objects := make(map[string]json.RawMessage, len(rec.Objects)+1)
	count, err := json.Marshal(len(rec.Objects))
	if err != nil {
		return nil, err
	}
	objects[objectCountKey] = count

	for i, obj := range rec.Objects {
		entry := obj.Raw
		if entry == nil {
			if entry, err = json.Marshal(map[string]string{"name": obj.Name}); err != nil {
				return nil, err
			}
		}
		objects[fmt.Sprint(i)] = entry
	}

	body := map[string]interface{}{"objects": objects}
	if rec.ImagePath != "" {
		body["img_path"] = rec.ImagePath
	}
	if rec.LabelPath != "" {
		body["label_path"] = rec.LabelPath
	}
	return json.Marshal(body)
}
