package notes

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Repository stores one serialized note list per reading text id. Load
// returns nil data, not an error, when nothing is stored for the key.
type Repository interface {
	Load(ctx context.Context, textID string) ([]byte, error)
	Save(ctx context.Context, textID string, data []byte) error
}

// MemoryRepository keeps note lists in process memory.
type MemoryRepository struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{data: make(map[string][]byte)}
}

func (r *MemoryRepository) Load(_ context.Context, textID string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.data[textID]...), nil
}

func (r *MemoryRepository) Save(_ context.Context, textID string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[textID] = append([]byte(nil), data...)
	return nil
}

// FileRepository writes each note list to <dir>/<textID>.json. Writes go
// through a temporary file and a rename so a crash never leaves a torn
// file behind.
type FileRepository struct {
	dir string
}

func NewFileRepository(dir string) (*FileRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes dir: %w", err)
	}
	return &FileRepository{dir: dir}, nil
}

var safeKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func (r *FileRepository) path(textID string) (string, error) {
	if !safeKey.MatchString(textID) || textID == "." || textID == ".." {
		return "", fmt.Errorf("invalid text id %q", textID)
	}
	return filepath.Join(r.dir, textID+".json"), nil
}

func (r *FileRepository) Load(_ context.Context, textID string) ([]byte, error) {
	p, err := r.path(textID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return data, nil
}

func (r *FileRepository) Save(_ context.Context, textID string, data []byte) error {
	p, err := r.path(textID)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(r.dir, textID+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("rename into %s: %w", p, err)
	}
	return nil
}

// RedisKeyPrefix prefixes every key written by RedisRepository.
const RedisKeyPrefix = "notes:"

// RedisRepository stores note lists under notes:<textID>.
type RedisRepository struct {
	client *redis.Client
}

func NewRedisRepository(client *redis.Client) *RedisRepository {
	return &RedisRepository{client: client}
}

func (r *RedisRepository) Load(ctx context.Context, textID string) ([]byte, error) {
	data, err := r.client.Get(ctx, RedisKeyPrefix+textID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", RedisKeyPrefix+textID, err)
	}
	return data, nil
}

func (r *RedisRepository) Save(ctx context.Context, textID string, data []byte) error {
	if err := r.client.Set(ctx, RedisKeyPrefix+textID, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", RedisKeyPrefix+textID, err)
	}
	return nil
}
