package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrCollision: два артефакта одного прогона указывают на один путь.
var ErrCollision = errors.New("output path collision")

// ErrBadItemID: id нельзя использовать как имя каталога item.
var ErrBadItemID = errors.New("invalid item id")

// Имена файлов сцены внутри каталога item.
var sceneNames = []string{"scene.yaml", "scene.yml", "scene.json"}

// ============================================================
// File Storage
// ============================================================

// FileStorage раскладывает артефакты по каталогам items/<ID>/.
type FileStorage struct {
	root string
}

func NewFileStorage(root string) *FileStorage {
	return &FileStorage{root: root}
}

func (s *FileStorage) Root() string {
	return s.root
}

// CheckItemID проверяет, что id задаёт ровно один каталог внутри root.
func CheckItemID(itemID string) error {
	if itemID == "" || itemID == "." || itemID == ".." ||
		strings.ContainsAny(itemID, `/\`) || filepath.Base(itemID) != itemID {
		return fmt.Errorf("%w: %q", ErrBadItemID, itemID)
	}
	return nil
}

func (s *FileStorage) ItemDir(itemID string) string {
	return filepath.Join(s.root, itemID)
}

// ScenePath возвращает первый существующий файл сцены (scene.yaml по умолчанию).
func (s *FileStorage) ScenePath(itemID string) string {
	for _, name := range sceneNames {
		p := filepath.Join(s.ItemDir(itemID), name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(s.ItemDir(itemID), sceneNames[0])
}

func (s *FileStorage) VariantsPath(itemID string) string {
	return filepath.Join(s.ItemDir(itemID), itemID+".variants.json")
}

func (s *FileStorage) SVGPath(itemID string) string {
	return filepath.Join(s.ItemDir(itemID), itemID+".svg")
}

func (s *FileStorage) FactsPath(itemID string) string {
	return filepath.Join(s.ItemDir(itemID), itemID+".pgdp.json")
}

// RasterBase: базовый путь для PNG базовой сцены (<ID>_<dpi>.png).
func (s *FileStorage) RasterBase(itemID string) string {
	return filepath.Join(s.ItemDir(itemID), itemID)
}

// VariantSVGPath: путь image варианта внутри каталога item, либо
// <ID>.<variant>.svg, если image не задан. Пути вне каталога item отклоняются.
func (s *FileStorage) VariantSVGPath(itemID, variantID, image string) (string, error) {
	if image == "" {
		return filepath.Join(s.ItemDir(itemID), itemID+"."+variantID+".svg"), nil
	}
	return s.Resolve(itemID, image)
}

func (s *FileStorage) VariantFactsPath(itemID, variantID string) string {
	return filepath.Join(s.ItemDir(itemID), itemID+"."+variantID+".pgdp.json")
}

// RasterBaseFor отрезает расширение у пути SVG.
func RasterBaseFor(svgPath string) string {
	return strings.TrimSuffix(svgPath, filepath.Ext(svgPath))
}

// Resolve переводит относительный путь в путь внутри каталога item.
func (s *FileStorage) Resolve(itemID, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("path %q must be relative to item %s", rel, itemID)
	}
	dir := s.ItemDir(itemID)
	p := filepath.Join(dir, rel)
	if r, err := filepath.Rel(dir, p); err != nil || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes item %s", rel, itemID)
	}
	return p, nil
}

// Items возвращает отсортированные id каталогов, в которых лежит файл сцены.
func (s *FileStorage) Items() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read items dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(s.ScenePath(e.Name())); err == nil {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *FileStorage) EnsureItemDir(itemID string) error {
	path := s.ItemDir(itemID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir item dir: %w", err)
	}
	return nil
}

// SaveFile пишет файл, создавая родительский каталог.
func (s *FileStorage) SaveFile(target string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(target), err)
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// CheckCollisions проверяет, что пути попарно различны.
func CheckCollisions(paths map[string]string) error {
	owners := make(map[string][]string)
	for owner, p := range paths {
		key := filepath.Clean(p)
		owners[key] = append(owners[key], owner)
	}

	var msgs []string
	for p, who := range owners {
		if len(who) > 1 {
			sort.Strings(who)
			msgs = append(msgs, fmt.Sprintf("%s <- %s", p, strings.Join(who, ", ")))
		}
	}
	if len(msgs) == 0 {
		return nil
	}
	sort.Strings(msgs)
	return fmt.Errorf("%w: %s", ErrCollision, strings.Join(msgs, "; "))
}
