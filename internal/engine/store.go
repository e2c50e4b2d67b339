package engine

import (
	"encoding/json"
	"os"

	apperr "github.com/shinyhunt/encounterd/internal/errors"
)

// FileStore persists the session state as a single JSON object,
// overwritten wholesale on every save. There is no locking and no
// atomic replace: the file has exactly one writer per process and a
// crash mid-write can corrupt it.
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the given path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads and decodes the state file. A missing or malformed file is
// an error; callers that want a fresh session construct NewState
// explicitly instead of silently defaulting.
func (fs *FileStore) Load() (*State, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.Persistence, "read state file")
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, apperr.Wrap(err, apperr.Persistence, "decode state file")
	}
	if st.MonStats == nil {
		st.MonStats = map[string]uint64{}
	}
	if st.LastEncounter == nil {
		st.LastEncounter = []string{}
	}
	return &st, nil
}

// Save overwrites the state file with the full state.
func (fs *FileStore) Save(st *State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return apperr.Wrap(err, apperr.Persistence, "encode state")
	}
	if err := os.WriteFile(fs.path, data, 0o644); err != nil {
		return apperr.Wrap(err, apperr.Persistence, "write state file")
	}
	return nil
}
