package store

// FileBatch buffers one file's rows in memory so a worker can build them
// without touching the database. CommitFile writes the batch in a single
// transaction; IDs are assigned at commit time.
type FileBatch struct {
	RunID        string
	File         File
	Dependencies []string
	CallSites    []CallSite
	Findings     []Finding
}

// NewFileBatch starts a batch for the file at path in run runID.
func NewFileBatch(runID, path, name, language, hash string) *FileBatch {
	return &FileBatch{
		RunID: runID,
		File: File{
			RunID:    runID,
			Path:     path,
			Name:     name,
			Language: language,
			Hash:     hash,
		},
	}
}

func (b *FileBatch) AddDependency(name string) {
	b.Dependencies = append(b.Dependencies, name)
}

func (b *FileBatch) AddCallSite(name string, line int) {
	b.CallSites = append(b.CallSites, CallSite{Name: name, Line: line})
	b.File.CallCount = len(b.CallSites)
}

func (b *FileBatch) AddFinding(f Finding) {
	b.Findings = append(b.Findings, f)
}
