package model

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	"go-vision-tools/internal/logger"

	"github.com/sirupsen/logrus"
)

// Kind identifies a detector configuration. The set is closed.
type Kind string

const (
	HaarCascade Kind = "haar_cascade"
	DnnFace     Kind = "dnn_face"
	YoloObject  Kind = "yolo_object"
)

// Artifact roles per detector kind
const (
	RoleCascade    = "cascade"
	RoleConfig     = "config"
	RoleWeights    = "weights"
	RoleClassNames = "class_names"
)

// canonicalFilenames fixes the expected filename for every role of every kind
var canonicalFilenames = map[Kind]map[string]string{
	HaarCascade: {
		RoleCascade: "haarcascade_frontalface_default.xml",
	},
	DnnFace: {
		RoleConfig:  "deploy.prototxt",
		RoleWeights: "res10_300x300_ssd_iter_140000.caffemodel",
	},
	YoloObject: {
		RoleConfig:     "yolov3.cfg",
		RoleWeights:    "yolov3.weights",
		RoleClassNames: "coco.names",
	},
}

// haarFallbackDirs are the installed OpenCV data locations searched when the
// frontal-face cascade is absent from the model root.
var haarFallbackDirs = []string{
	"/usr/share/opencv4/haarcascades",
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// Descriptor is the result of resolving a detector kind against a model root.
// A descriptor with missing roles is a valid result; callers decide whether
// partial operation is acceptable.
type Descriptor struct {
	Kind Kind
	Root string

	// Paths maps each resolved role to an absolute, existing file.
	Paths map[string]string
	// Expected maps every required role to the path the registry looked for.
	Expected map[string]string
	// Missing lists roles with no resolvable artifact, sorted.
	Missing []string
}

// Complete reports whether every required role resolved
func (d *Descriptor) Complete() bool {
	return len(d.Missing) == 0
}

// Registry resolves model artifacts against a configured root directory.
// The root is fixed at construction; complete descriptors are cached since
// resolution is idempotent.
type Registry struct {
	root string

	mu    sync.RWMutex
	cache map[Kind]*Descriptor

	log *logrus.Entry
}

// NewRegistry creates a registry over the given model root
func NewRegistry(modelRoot string) *Registry {
	return &Registry{
		root:  modelRoot,
		cache: make(map[Kind]*Descriptor),
		log:   logger.WithComponent("model_registry"),
	}
}

// Root returns the configured model root directory
func (r *Registry) Root() string {
	return r.root
}

// Resolve builds the descriptor for a detector kind. It never fails outright:
// absent artifacts are reported through Descriptor.Missing. Incomplete
// descriptors are not cached so that artifacts dropped into the root later
// are picked up without a restart.
func (r *Registry) Resolve(kind Kind) *Descriptor {
	r.mu.RLock()
	cached, ok := r.cache[kind]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	desc := &Descriptor{
		Kind:     kind,
		Root:     r.root,
		Paths:    make(map[string]string),
		Expected: make(map[string]string),
	}

	for role, filename := range canonicalFilenames[kind] {
		expected := filepath.Join(r.root, filename)
		desc.Expected[role] = expected

		if fileExists(expected) {
			desc.Paths[role] = expected
			continue
		}

		if kind == HaarCascade {
			if fallback := findHaarFallback(filename); fallback != "" {
				desc.Paths[role] = fallback
				continue
			}
		}

		desc.Missing = append(desc.Missing, role)
	}
	sort.Strings(desc.Missing)

	if desc.Complete() {
		r.mu.Lock()
		r.cache[kind] = desc
		r.mu.Unlock()
	} else {
		r.log.WithFields(logrus.Fields{
			"kind":    kind,
			"root":    r.root,
			"missing": desc.Missing,
		}).Warn("Model artifacts missing")
	}

	return desc
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func findHaarFallback(filename string) string {
	dirs := haarFallbackDirs
	if env := os.Getenv("OPENCV_HAARCASCADES_DIR"); env != "" {
		dirs = append([]string{env}, dirs...)
	}
	for _, dir := range dirs {
		candidate := filepath.Join(dir, filename)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}
