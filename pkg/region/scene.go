package region

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// TrackedObject is a scene object whose detail level follows the gaze.
type TrackedObject interface {
	ID() string
	Position() mgl32.Vec3

	// LODCount is the number of detail levels the object provides.
	LODCount() int

	// ForceLOD pins the object to a level in [0, LODCount).
	ForceLOD(level int)
}

// Scene supplies the objects to classify on each tick.
type Scene interface {
	Objects() []TrackedObject
}

// Mesh is a simple TrackedObject with a fixed position.
// It is goroutine-safe.
type Mesh struct {
	id       string
	position mgl32.Vec3
	lods     int

	mu     sync.Mutex
	level  int
	forced int
}

// NewMesh creates a mesh with lods detail levels at position.
func NewMesh(id string, position mgl32.Vec3, lods int) *Mesh {
	return &Mesh{id: id, position: position, lods: lods, level: -1}
}

func (m *Mesh) ID() string           { return m.id }
func (m *Mesh) Position() mgl32.Vec3 { return m.position }
func (m *Mesh) LODCount() int        { return m.lods }

// ForceLOD records the requested level.
func (m *Mesh) ForceLOD(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.level = level
	m.forced++
}

// Level returns the last forced level, or -1 if none.
func (m *Mesh) Level() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.level
}

// Forced returns how many times ForceLOD was called.
func (m *Mesh) Forced() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.forced
}

// StaticScene is a Scene backed by a fixed list.
type StaticScene struct {
	mu      sync.RWMutex
	objects []TrackedObject
}

// NewStaticScene creates a scene holding objects.
func NewStaticScene(objects ...TrackedObject) *StaticScene {
	return &StaticScene{objects: objects}
}

// Add appends an object.
func (s *StaticScene) Add(obj TrackedObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects = append(s.objects, obj)
}

// Objects returns a copy of the object list.
func (s *StaticScene) Objects() []TrackedObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]TrackedObject(nil), s.objects...)
}

// GridScene lays out a cols x rows grid of meshes on the z=0 plane,
// spacing units apart and centred on the origin.
func GridScene(cols, rows int, spacing float32, lods int) *StaticScene {
	s := NewStaticScene()
	x0 := -float32(cols-1) * spacing / 2
	y0 := -float32(rows-1) * spacing / 2
	for r := range rows {
		for c := range cols {
			pos := mgl32.Vec3{x0 + float32(c)*spacing, y0 + float32(r)*spacing, 0}
			s.Add(NewMesh(fmt.Sprintf("mesh-%d-%d", r, c), pos, lods))
		}
	}
	return s
}
