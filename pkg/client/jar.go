package client

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sync"

	json "github.com/json-iterator/go"
)

type storedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Jar is a cookie jar that mirrors the backend's cookies to disk, so a
// session cookie outlives the process that received it.
type Jar struct {
	*cookiejar.Jar
	base *url.URL
	path string
	mu   sync.Mutex
}

// NewJar creates a jar scoped to base and restores cookies from path
func NewJar(base *url.URL, path string) (*Jar, error) {
	inner, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	j := &Jar{Jar: inner, base: base, path: path}
	if err := j.load(); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *Jar) load() error {
	stored, err := j.read()
	if err != nil {
		return err
	}
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	j.SetCookies(j.base, cookies)
	return nil
}

func (j *Jar) read() ([]storedCookie, error) {
	if j.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(j.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var stored []storedCookie
	if err := json.Unmarshal(data, &stored); err != nil {
		// A corrupt jar is as good as an empty one
		return nil, nil
	}
	return stored, nil
}

// Reload replaces the cookies held in memory with the ones on disk. Another
// process that signed in or out has rewritten the file, and saving the old
// cookies over it would undo that.
func (j *Jar) Reload() error {
	if j.path == "" {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	stored, err := j.read()
	if err != nil {
		return err
	}
	onDisk := make(map[string]bool, len(stored))
	cookies := make([]*http.Cookie, 0, len(stored))
	for _, s := range stored {
		onDisk[s.Name] = true
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	for _, c := range j.Cookies(j.base) {
		if !onDisk[c.Name] {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Path: "/", MaxAge: -1})
		}
	}
	j.SetCookies(j.base, cookies)
	return nil
}

// Save writes the cookies for the backend to disk
func (j *Jar) Save() error {
	if j.path == "" {
		return nil
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	cookies := j.Cookies(j.base)
	stored := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, storedCookie{Name: c.Name, Value: c.Value})
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(j.path), 0700); err != nil {
		return err
	}
	return os.WriteFile(j.path, data, 0600)
}
