package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"
)

// FileHealth is the integrity state of a file.
type FileHealth string

const (
	FileGood      FileHealth = "GOOD"
	FileCorrupt   FileHealth = "CORRUPT"
	FileRepairing FileHealth = "REPAIRING"
	FileDestroyed FileHealth = "DESTROYED"
	FileRestoring FileHealth = "RESTORING"
)

// healthSeverity orders integrity states for worst-of-children folder
// aggregation.
var healthSeverity = map[FileHealth]int{
	FileGood:      0,
	FileRepairing: 1,
	FileRestoring: 2,
	FileCorrupt:   3,
	FileDestroyed: 4,
}

// File is a persisted data unit owned by a Folder. Quarantine is orthogonal
// to integrity: it blocks read access without altering the health state.
type File struct {
	entity
	router *RequestRouter

	fileType  string
	sizeBytes int

	health           FileHealth
	repairDuration   int
	restoreDuration  int
	repairCountdown  int
	restoreCountdown int
	quarantined      bool

	folder *Folder
}

func newFile(folder *Folder, cfg FileConfig) *File {
	f := &File{
		entity:          newEntity("file", folder.Name()+"/"+cfg.Name),
		router:          NewRequestRouter(),
		fileType:        cfg.Type,
		sizeBytes:       cfg.SizeBytes,
		health:          FileGood,
		repairDuration:  cfg.RepairDuration,
		restoreDuration: cfg.RestoreDuration,
		folder:          folder,
	}
	f.router.mustOp("read", f.opRead)
	f.router.mustOp("corrupt", f.opCorrupt)
	f.router.mustOp("repair", f.opRepair)
	f.router.mustOp("destroy", f.opDestroy)
	f.router.mustOp("restore", f.opRestore)
	f.router.mustOp("quarantine", f.opQuarantine)
	f.router.mustOp("end_quarantine", f.opEndQuarantine)
	return f
}

func (f *File) ApplyRequest(path []string, ctx *RequestContext) Response {
	return f.router.Dispatch(path, ctx)
}

// Health returns the file's current integrity state.
func (f *File) Health() FileHealth { return f.health }

// Quarantined reports whether read/execute access is blocked.
func (f *File) Quarantined() bool { return f.quarantined }

// Readable reports whether the file can currently be read: it must not be
// destroyed and neither it nor its folder may be quarantined.
func (f *File) Readable() bool {
	if f.health == FileDestroyed {
		return false
	}
	if f.quarantined || f.folder.quarantined {
		return false
	}
	return true
}

func (f *File) opRead(ctx *RequestContext, args []string) Response {
	if !f.Readable() {
		return Failure("file not readable")
	}
	return Success(map[string]any{"size_bytes": f.sizeBytes, "type": f.fileType})
}

// Corrupt marks the file corrupt. Corrupting an already corrupt file keeps
// it corrupt.
func (f *File) Corrupt() bool {
	if f.health == FileDestroyed {
		return false
	}
	f.health = FileCorrupt
	f.repairCountdown = 0
	f.restoreCountdown = 0
	return true
}

func (f *File) opCorrupt(ctx *RequestContext, args []string) Response {
	if !f.Corrupt() {
		return Failure("cannot corrupt a destroyed file")
	}
	logrus.Debugf("file %s corrupted", f.Name())
	return Success(nil)
}

// Repair begins the timed corrupt -> repairing -> good recovery.
func (f *File) Repair() bool {
	if f.health != FileCorrupt {
		return false
	}
	f.health = FileRepairing
	f.repairCountdown = f.repairDuration
	if f.repairCountdown <= 0 {
		f.health = FileGood
	}
	return true
}

func (f *File) opRepair(ctx *RequestContext, args []string) Response {
	if !f.Repair() {
		return Failure(fmt.Sprintf("cannot repair file in state %s", f.health))
	}
	return Success(nil)
}

// Destroy marks the file destroyed; only a restore can bring it back.
func (f *File) Destroy() bool {
	if f.health == FileDestroyed {
		return false
	}
	f.health = FileDestroyed
	f.repairCountdown = 0
	f.restoreCountdown = 0
	return true
}

func (f *File) opDestroy(ctx *RequestContext, args []string) Response {
	if !f.Destroy() {
		return Failure("file already destroyed")
	}
	logrus.Debugf("file %s destroyed", f.Name())
	return Success(nil)
}

// Restore begins the timed destroyed -> restoring -> good recovery.
func (f *File) Restore() bool {
	if f.health != FileDestroyed {
		return false
	}
	f.health = FileRestoring
	f.restoreCountdown = f.restoreDuration
	if f.restoreCountdown <= 0 {
		f.health = FileGood
	}
	return true
}

func (f *File) opRestore(ctx *RequestContext, args []string) Response {
	if !f.Restore() {
		return Failure(fmt.Sprintf("cannot restore file in state %s", f.health))
	}
	return Success(nil)
}

func (f *File) opQuarantine(ctx *RequestContext, args []string) Response {
	f.quarantined = true
	return Success(nil)
}

func (f *File) opEndQuarantine(ctx *RequestContext, args []string) Response {
	f.quarantined = false
	return Success(nil)
}

// AdvanceTimestep decrements any active repair/restore countdown, resolving
// to GOOD when it reaches zero.
func (f *File) AdvanceTimestep() {
	switch f.health {
	case FileRepairing:
		f.repairCountdown--
		if f.repairCountdown <= 0 {
			f.health = FileGood
		}
	case FileRestoring:
		f.restoreCountdown--
		if f.restoreCountdown <= 0 {
			f.health = FileGood
		}
	}
}

func (f *File) DescribeState() map[string]any {
	return map[string]any{
		"type":         f.fileType,
		"size_bytes":   f.sizeBytes,
		"health_state": string(f.health),
		"quarantined":  f.quarantined,
	}
}

// Folder owns a set of files. It carries no integrity enum of its own; its
// aggregate health is derived from the worst of its children.
type Folder struct {
	entity
	router      *RequestRouter
	files       map[string]*File
	quarantined bool
}

func newFolder(cfg FolderConfig) (*Folder, error) {
	fd := &Folder{
		entity: newEntity("folder", cfg.Name),
		router: NewRequestRouter(),
		files:  make(map[string]*File),
	}
	fd.router.mustOp("quarantine", fd.opQuarantine)
	fd.router.mustOp("end_quarantine", fd.opEndQuarantine)
	fd.router.mustOp("create_file", fd.opCreateFile)
	fd.router.mustOp("delete_file", fd.opDeleteFile)
	fd.router.mustOp("repair", fd.opRepair)
	for _, fc := range cfg.Files {
		if err := fd.addFile(fc); err != nil {
			return nil, err
		}
	}
	return fd, nil
}

func (fd *Folder) addFile(cfg FileConfig) error {
	if _, exists := fd.files[cfg.Name]; exists {
		return fmt.Errorf("folder %s: file %q already exists", fd.Name(), cfg.Name)
	}
	fd.files[cfg.Name] = newFile(fd, cfg)
	return nil
}

// File looks up a contained file by name.
func (fd *Folder) File(name string) (*File, bool) {
	f, ok := fd.files[name]
	return f, ok
}

// AggregateHealth derives the folder's health as the worst health among its
// files. An empty folder is GOOD.
func (fd *Folder) AggregateHealth() FileHealth {
	worst := FileGood
	for _, name := range sortedKeys(fd.files) {
		h := fd.files[name].health
		if healthSeverity[h] > healthSeverity[worst] {
			worst = h
		}
	}
	return worst
}

func (fd *Folder) ApplyRequest(path []string, ctx *RequestContext) Response {
	if len(path) >= 2 && path[0] == "file" {
		f, ok := fd.files[path[1]]
		if !ok {
			return Failure(fmt.Sprintf("no file %q in folder %s", path[1], fd.Name()))
		}
		return f.ApplyRequest(path[2:], ctx)
	}
	return fd.router.Dispatch(path, ctx)
}

func (fd *Folder) opQuarantine(ctx *RequestContext, args []string) Response {
	fd.quarantined = true
	return Success(nil)
}

func (fd *Folder) opEndQuarantine(ctx *RequestContext, args []string) Response {
	fd.quarantined = false
	return Success(nil)
}

func (fd *Folder) opCreateFile(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("create_file requires a file name")
	}
	cfg := FileConfig{Name: args[0], Type: "data"}
	cfg.applyDefaults()
	if err := fd.addFile(cfg); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

func (fd *Folder) opDeleteFile(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("delete_file requires a file name")
	}
	if _, ok := fd.files[args[0]]; !ok {
		return Failure(fmt.Sprintf("no file %q in folder %s", args[0], fd.Name()))
	}
	delete(fd.files, args[0])
	return Success(nil)
}

// opRepair starts a repair on every corrupt file in the folder.
func (fd *Folder) opRepair(ctx *RequestContext, args []string) Response {
	repaired := 0
	for _, name := range sortedKeys(fd.files) {
		if fd.files[name].Repair() {
			repaired++
		}
	}
	return Success(map[string]any{"repaired": repaired})
}

// AdvanceTimestep advances every contained file's countdowns.
func (fd *Folder) AdvanceTimestep() {
	for _, name := range sortedKeys(fd.files) {
		fd.files[name].AdvanceTimestep()
	}
}

func (fd *Folder) DescribeState() map[string]any {
	files := map[string]any{}
	for name, f := range fd.files {
		files[name] = f.DescribeState()
	}
	return map[string]any{
		"health_state": string(fd.AggregateHealth()),
		"quarantined":  fd.quarantined,
		"files":        files,
	}
}

// FileSystem is the per-node tree of folders. Every node owns exactly one.
type FileSystem struct {
	entity
	router  *RequestRouter
	folders map[string]*Folder
}

func newFileSystem(host string, folderCfgs []FolderConfig) (*FileSystem, error) {
	fs := &FileSystem{
		entity:  newEntity("file_system", host),
		router:  NewRequestRouter(),
		folders: make(map[string]*Folder),
	}
	fs.router.mustOp("create_folder", fs.opCreateFolder)
	fs.router.mustOp("delete_folder", fs.opDeleteFolder)
	cfgs := folderCfgs
	if len(cfgs) == 0 {
		// every node gets a root folder
		cfgs = []FolderConfig{{Name: "root"}}
	}
	for _, fc := range cfgs {
		if err := fs.addFolder(fc); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

func (fs *FileSystem) addFolder(cfg FolderConfig) error {
	if _, exists := fs.folders[cfg.Name]; exists {
		return fmt.Errorf("file system: folder %q already exists", cfg.Name)
	}
	fd, err := newFolder(cfg)
	if err != nil {
		return err
	}
	fs.folders[cfg.Name] = fd
	return nil
}

// Folder looks up a folder by name.
func (fs *FileSystem) Folder(name string) (*Folder, bool) {
	fd, ok := fs.folders[name]
	return fd, ok
}

func (fs *FileSystem) ApplyRequest(path []string, ctx *RequestContext) Response {
	if len(path) >= 2 && path[0] == "folder" {
		fd, ok := fs.folders[path[1]]
		if !ok {
			return Failure(fmt.Sprintf("no folder %q", path[1]))
		}
		return fd.ApplyRequest(path[2:], ctx)
	}
	return fs.router.Dispatch(path, ctx)
}

func (fs *FileSystem) opCreateFolder(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("create_folder requires a folder name")
	}
	if err := fs.addFolder(FolderConfig{Name: args[0]}); err != nil {
		return Failure(err.Error())
	}
	return Success(nil)
}

// opDeleteFolder removes a folder; deletion cascades to contained files.
func (fs *FileSystem) opDeleteFolder(ctx *RequestContext, args []string) Response {
	if len(args) < 1 {
		return Failure("delete_folder requires a folder name")
	}
	if _, ok := fs.folders[args[0]]; !ok {
		return Failure(fmt.Sprintf("no folder %q", args[0]))
	}
	delete(fs.folders, args[0])
	return Success(nil)
}

// AdvanceTimestep advances integrity countdowns across all folders.
func (fs *FileSystem) AdvanceTimestep() {
	for _, name := range sortedKeys(fs.folders) {
		fs.folders[name].AdvanceTimestep()
	}
}

func (fs *FileSystem) DescribeState() map[string]any {
	folders := map[string]any{}
	for name, fd := range fs.folders {
		folders[name] = fd.DescribeState()
	}
	return map[string]any{"folders": folders}
}

// sortedKeys returns the keys of a string-keyed map in ascending order, for
// deterministic iteration.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
