// Package snapshot keeps all inventory tables in one MessagePack file. Each
// write re-encodes the whole file and swaps it into place.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	applog "pantrypos/internal/log"
	"pantrypos/models"
)

const formatVersion = 1

type document struct {
	Version     int                 `msgpack:"v"`
	Ingredients []models.Ingredient `msgpack:"ingredients"`
	Products    []models.Product    `msgpack:"products"`
	Recipes     []models.RecipeLine `msgpack:"recipes"`
	Sales       []models.Sale       `msgpack:"sales"`
}

// Store is a file-backed Store. A missing file reads as empty tables.
type Store struct {
	path string
	mu   sync.Mutex
}

// Open returns a Store for path. The file is created on first write.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("snapshot: path is empty")
	}
	s := &Store{path: path}
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) LoadIngredients(ctx context.Context) ([]models.Ingredient, error) {
	doc, err := s.load(ctx)
	return doc.Ingredients, err
}

func (s *Store) SaveIngredients(ctx context.Context, ingredients []models.Ingredient) error {
	return s.update(ctx, func(doc *document) { doc.Ingredients = ingredients })
}

func (s *Store) LoadProducts(ctx context.Context) ([]models.Product, error) {
	doc, err := s.load(ctx)
	return doc.Products, err
}

func (s *Store) SaveProducts(ctx context.Context, products []models.Product) error {
	return s.update(ctx, func(doc *document) { doc.Products = products })
}

func (s *Store) LoadRecipeLines(ctx context.Context) ([]models.RecipeLine, error) {
	doc, err := s.load(ctx)
	return doc.Recipes, err
}

func (s *Store) SaveRecipeLines(ctx context.Context, lines []models.RecipeLine) error {
	return s.update(ctx, func(doc *document) { doc.Recipes = lines })
}

func (s *Store) LoadSales(ctx context.Context) ([]models.Sale, error) {
	doc, err := s.load(ctx)
	return doc.Sales, err
}

func (s *Store) AppendSale(ctx context.Context, sale models.Sale) error {
	return s.update(ctx, func(doc *document) { doc.Sales = append(doc.Sales, sale) })
}

func (s *Store) load(ctx context.Context) (document, error) {
	if err := ctx.Err(); err != nil {
		return document{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) update(ctx context.Context, mutate func(*document)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return err
	}
	mutate(&doc)
	doc.Version = formatVersion
	if err := s.write(doc); err != nil {
		return err
	}
	applog.Debug(ctx, "snapshot written", "path", s.path)
	return nil
}

func (s *Store) read() (document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{Version: formatVersion}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("snapshot: read %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return document{Version: formatVersion}, nil
	}

	var doc document
	if err := msgpack.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("snapshot: decode %s: %w", s.path, err)
	}
	if doc.Version != formatVersion {
		return document{}, fmt.Errorf("snapshot: %s has unsupported version %d", s.path, doc.Version)
	}
	return doc, nil
}

func (s *Store) write(doc document) error {
	data, err := msgpack.Marshal(&doc)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("snapshot: write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("snapshot: replace %s: %w", s.path, err)
	}
	return nil
}
