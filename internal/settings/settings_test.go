package settings

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"villagework/internal/config"
)

func TestFileRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "settings.yaml")

	repo, err := NewFileRepository(path)
	if err != nil {
		t.Fatalf("NewFileRepository: %v", err)
	}

	if _, err := repo.Get(ctx, KeyLanguage); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Get before Load err = %v, want ErrNotLoaded", err)
	}
	if err := repo.Set(ctx, KeyLanguage, "hi"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Set before Load err = %v, want ErrNotLoaded", err)
	}

	if err := repo.Load(ctx); err != nil {
		t.Fatalf("Load on missing file: %v", err)
	}
	if _, err := repo.Get(ctx, KeyLanguage); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get missing key err = %v, want ErrNotFound", err)
	}

	for key, value := range map[string]string{
		KeyLanguage:           "mr",
		KeyUserRole:           "worker",
		KeyOnboardingComplete: "true",
	} {
		if err := repo.Set(ctx, key, value); err != nil {
			t.Fatalf("Set %s: %v", key, err)
		}
	}
	if err := repo.Delete(ctx, KeyOnboardingComplete); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	reopened, _ := NewFileRepository(path)
	if err := reopened.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	all, err := reopened.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 2 || all[KeyLanguage] != "mr" || all[KeyUserRole] != "worker" {
		t.Errorf("persisted settings = %v", all)
	}
}

func TestFileRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("- not\n- a map\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	repo, _ := NewFileRepository(path)
	if err := repo.Load(context.Background()); err == nil {
		t.Fatal("expected an error for a non-map settings file")
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got, err := expandHome("~/.villagework/settings.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(home, ".villagework", "settings.yaml"); got != want {
		t.Errorf("expandHome = %q, want %q", got, want)
	}

	if got, _ := expandHome("/etc/vw.yaml"); got != "/etc/vw.yaml" {
		t.Errorf("absolute path changed to %q", got)
	}
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()
	repo, _ := NewFileRepository(filepath.Join(t.TempDir(), "settings.yaml"))
	src := TokenSource{Repo: repo}

	if _, err := src.Token(ctx); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Token before Load err = %v, want ErrNotLoaded", err)
	}

	if err := repo.Load(ctx); err != nil {
		t.Fatal(err)
	}
	token, err := src.Token(ctx)
	if err != nil || token != "" {
		t.Fatalf("Token with nothing stored = %q, %v", token, err)
	}

	if err := repo.Set(ctx, KeyAuthToken, "abc"); err != nil {
		t.Fatal(err)
	}
	if token, _ := src.Token(ctx); token != "abc" {
		t.Errorf("Token = %q, want abc", token)
	}
}

func TestOpen(t *testing.T) {
	cfg := config.Default()
	cfg.Settings.Path = filepath.Join(t.TempDir(), "s.yaml")

	repo, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open file: %v", err)
	}
	if _, ok := repo.(*FileRepository); !ok {
		t.Errorf("Open returned %T, want *FileRepository", repo)
	}

	cfg.Settings.Backend = "redis"
	cfg.Redis.URL = "redis://localhost:6379/0"
	repo, err = Open(cfg)
	if err != nil {
		t.Fatalf("Open redis: %v", err)
	}
	if _, ok := repo.(*RedisRepository); !ok {
		t.Errorf("Open returned %T, want *RedisRepository", repo)
	}
	repo.Close()

	cfg.Redis.URL = "localhost:6379"
	if repo, err := Open(cfg); err == nil || repo != nil {
		t.Errorf("Open with a malformed redis url = %v, %v", repo, err)
	}

	cfg.Settings.Backend = "carrier-pigeon"
	if _, err := Open(cfg); err == nil {
		t.Error("expected an error for an unknown backend")
	}
}

func TestRedisRepository(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}
	ctx := context.Background()
	profile := "test-" + uuid.NewString()

	repo, err := NewRedisRepository(RedisOptions{URL: url, Profile: profile})
	if err != nil {
		t.Fatalf("NewRedisRepository: %v", err)
	}
	defer repo.Close()
	if err := repo.Ping(ctx); err != nil {
		t.Skipf("redis unreachable: %v", err)
	}

	if err := repo.Set(ctx, KeyLanguage, "hi"); !errors.Is(err, ErrNotLoaded) {
		t.Fatalf("Set before Load err = %v, want ErrNotLoaded", err)
	}
	if err := repo.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := repo.Set(ctx, KeyLanguage, "hi"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	t.Cleanup(func() { repo.Delete(context.Background(), KeyLanguage) })

	other, err := NewRedisRepository(RedisOptions{URL: url, Profile: profile})
	if err != nil {
		t.Fatal(err)
	}
	defer other.Close()
	if err := other.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if got, _ := other.Get(ctx, KeyLanguage); got != "hi" {
		t.Errorf("Get from second repository = %q, want hi", got)
	}
}
