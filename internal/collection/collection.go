// Package collection loads and saves request collections and their
// environments.
//
// Supported formats:
//   - .json: JSON, comments and trailing commas allowed
//   - .yaml / .yml
//   - .http: a single file of ### separated requests
//   - a directory of .http files, one folder per file
package collection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/studiowebux/reqflow/internal/config"
	"github.com/studiowebux/reqflow/internal/types"
)

var (
	ErrRequestNotFound = errors.New("request not found")
	ErrFolderNotFound  = errors.New("folder not found")
)

// Load reads a collection from path
func Load(path string) (*types.Collection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection: %w", err)
	}

	var c *types.Collection
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case info.IsDir():
		c, err = loadHTTPDir(path)
	case ext == ".http" || ext == ".rest":
		c, err = loadHTTPFile(path)
	case ext == ".yaml" || ext == ".yml":
		c, err = loadYAML(path)
	default:
		c, err = loadJSON(path)
	}
	if err != nil {
		return nil, err
	}

	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	assignIDs(c)
	return c, nil
}

// Save writes c to path as YAML or JSON depending on the extension
func Save(path string, c *types.Collection) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		return fmt.Errorf("failed to save collection: unsupported format %q", filepath.Ext(path))
	}
	if err != nil {
		return fmt.Errorf("failed to marshal collection: %w", err)
	}

	if err := os.WriteFile(path, data, config.FilePermissions); err != nil {
		return fmt.Errorf("failed to write collection: %w", err)
	}
	return nil
}

func loadJSON(path string) (*types.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	var c types.Collection
	if err := json.Unmarshal(jsonc.ToJSON(data), &c); err != nil {
		return nil, fmt.Errorf("failed to parse collection %s: %w", path, err)
	}
	return &c, nil
}

func loadYAML(path string) (*types.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}
	var c types.Collection
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse collection %s: %w", path, err)
	}
	return &c, nil
}

func loadHTTPFile(path string) (*types.Collection, error) {
	reqs, err := ParseHTTPFile(path)
	if err != nil {
		return nil, err
	}
	return &types.Collection{Requests: reqs}, nil
}

// loadHTTPDir turns every .http file in dir into a folder, sorted by name
func loadHTTPDir(dir string) (*types.Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read collection directory: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	c := &types.Collection{Name: filepath.Base(dir)}
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".http") {
			continue
		}
		reqs, err := ParseHTTPFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		c.Folders = append(c.Folders, &types.Folder{
			Name:     strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			Requests: reqs,
		})
	}
	return c, nil
}

// assignIDs gives a UUID to every collection, folder, request and extract
// rule that has none
func assignIDs(c *types.Collection) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	var walk func(folders []*types.Folder, reqs []*types.HttpRequest)
	walk = func(folders []*types.Folder, reqs []*types.HttpRequest) {
		for _, r := range reqs {
			if r == nil {
				continue
			}
			if r.ID == "" {
				r.ID = uuid.NewString()
			}
			for i := range r.ExtractRules {
				if r.ExtractRules[i].ID == "" {
					r.ExtractRules[i].ID = uuid.NewString()
				}
			}
		}
		for _, f := range folders {
			if f == nil {
				continue
			}
			if f.ID == "" {
				f.ID = uuid.NewString()
			}
			walk(f.Folders, f.Requests)
		}
	}
	walk(c.Folders, c.Requests)
}

// FindRequest looks a request up by ID, then by name, anywhere in c
func FindRequest(c *types.Collection, idOrName string) (*types.HttpRequest, error) {
	all := c.Root().AllRequests()
	for _, r := range all {
		if r.ID == idOrName {
			return r, nil
		}
	}
	for _, r := range all {
		if r.Name == idOrName {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, idOrName)
}

// FindFolder resolves a folder by ID or by a slash separated path of folder
// names ("users/admin"). An empty path is the collection root.
func FindFolder(c *types.Collection, pathOrID string) (*types.Folder, error) {
	pathOrID = strings.Trim(pathOrID, "/")
	if pathOrID == "" {
		return c.Root(), nil
	}

	if f := findFolderByID(c.Folders, pathOrID); f != nil {
		return f, nil
	}

	folders := c.Folders
	var current *types.Folder
	for _, name := range strings.Split(pathOrID, "/") {
		current = nil
		for _, f := range folders {
			if f.Name == name {
				current = f
				break
			}
		}
		if current == nil {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, pathOrID)
		}
		folders = current.Folders
	}
	return current, nil
}

func findFolderByID(folders []*types.Folder, id string) *types.Folder {
	for _, f := range folders {
		if f.ID == id {
			return f
		}
		if found := findFolderByID(f.Folders, id); found != nil {
			return found
		}
	}
	return nil
}

// RequestIDs returns the IDs of every request in c
func RequestIDs(c *types.Collection) []string {
	all := c.Root().AllRequests()
	ids := make([]string, 0, len(all))
	for _, r := range all {
		ids = append(ids, r.ID)
	}
	return ids
}
