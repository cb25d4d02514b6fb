package jobs

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

const metaFile = "meta.json"

// Store persists job records on disk, one directory per job. The directory
// is the job's namespace: it holds the metadata record next to the source
// media and every artifact the pipeline produces, so deleting the directory
// deletes the job in one operation.
//
// Records are replaced wholesale via temp-file rename, which keeps a reader
// from ever observing a half-written status/progress pair. Locking is not
// needed on top of that: only the job's own executor writes its record.
type Store struct {
	root string
}

func NewStore(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("jobs root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create jobs root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the jobs root directory.
func (s *Store) Root() string {
	return s.root
}

// JobDir returns the namespace directory for a job id.
func (s *Store) JobDir(id string) string {
	return filepath.Join(s.root, id)
}

func (s *Store) metaPath(id string) string {
	return filepath.Join(s.JobDir(id), metaFile)
}

// Create allocates the job's namespace and writes its initial record.
// The record is written before any media lands in the namespace, so the
// metadata exists for the namespace's entire lifetime.
func (s *Store) Create(job *Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	dir := s.JobDir(job.ID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("namespace %s: %w", job.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("create namespace %s: %w", job.ID, err)
	}
	return s.writeMeta(job)
}

// Read loads a job record.
func (s *Store) Read(id string) (*Job, error) {
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("read job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Write atomically replaces a job's record. It refuses to resurrect a
// namespace that has been deleted out from under a running executor: in
// that race, delete wins and the write reports ErrNotFound.
func (s *Store) Write(job *Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required")
	}
	if _, err := os.Stat(s.JobDir(job.ID)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
		}
		return fmt.Errorf("stat namespace %s: %w", job.ID, err)
	}
	return s.writeMeta(job)
}

func (s *Store) writeMeta(job *Job) error {
	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	dir := s.JobDir(job.ID)
	tmp, err := os.CreateTemp(dir, metaFile+".tmp-*")
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("job %s: %w", job.ID, ErrNotFound)
		}
		return fmt.Errorf("stage job %s record: %w", job.ID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("stage job %s record: %w", job.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("stage job %s record: %w", job.ID, err)
	}
	if err := os.Rename(tmpName, s.metaPath(job.ID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit job %s record: %w", job.ID, err)
	}
	return nil
}

// Delete removes the job record and its entire namespace together.
func (s *Store) Delete(id string) error {
	dir := s.JobDir(id)
	if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("job %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("stat namespace %s: %w", id, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("delete namespace %s: %w", id, err)
	}
	return nil
}

// List returns every readable job record, newest first. Namespaces whose
// record cannot be read are skipped rather than failing the listing.
func (s *Store) List() ([]*Job, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("scan jobs root: %w", err)
	}

	ret := make([]*Job, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		job, err := s.Read(entry.Name())
		if err != nil {
			continue
		}
		ret = append(ret, job)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	return ret, nil
}

// SaveSource streams the uploaded media into the job's namespace under the
// job's recorded filename.
func (s *Store) SaveSource(id, filename string, r io.Reader) error {
	dst, err := os.Create(filepath.Join(s.JobDir(id), filename))
	if err != nil {
		return fmt.Errorf("create source file for job %s: %w", id, err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		return fmt.Errorf("persist source for job %s: %w", id, err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("persist source for job %s: %w", id, err)
	}
	return nil
}
