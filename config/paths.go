package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// SearchDirs 未指定 --config 时按顺序查找 config.json 的目录
func SearchDirs() ([]string, error) {
	home, err := ResolveUserHomeDir()
	if err != nil {
		return nil, err
	}
	return []string{
		filepath.Join(".", DirName),
		".",
		filepath.Join(home, DirName),
	}, nil
}

// GetDefaultConfigPath 获取默认配置文件路径，init 命令写入这里
func GetDefaultConfigPath() (string, error) {
	home, err := ResolveUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, DirName, "config.json"), nil
}

// ExpandUserPath 展开开头的 "~"，失败时原样返回
func ExpandUserPath(path string) string {
	p := strings.TrimSpace(path)
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, "~\\") {
		return path
	}
	home, err := ResolveUserHomeDir()
	if err != nil || strings.TrimSpace(home) == "" {
		return path
	}
	rest := strings.TrimLeft(p[1:], "/\\")
	if rest == "" {
		return home
	}
	return filepath.Join(home, filepath.FromSlash(rest))
}

// ResolveUserHomeDir returns the best-effort user home directory.
// On Windows, prefer USERPROFILE or HOMEDRIVE+HOMEPATH to avoid HOME drift.
func ResolveUserHomeDir() (string, error) {
	if runtime.GOOS == "windows" {
		if profile := strings.TrimSpace(os.Getenv("USERPROFILE")); profile != "" {
			return profile, nil
		}
		drive := strings.TrimSpace(os.Getenv("HOMEDRIVE"))
		path := strings.TrimSpace(os.Getenv("HOMEPATH"))
		if drive != "" && path != "" {
			return filepath.Clean(drive + path), nil
		}
	}
	return os.UserHomeDir()
}
