// Package updater replaces the running binary with the latest GitHub
// release. Linux releases ship as .tar.xz, Windows releases as .zip.
package updater

import (
	"archive/tar"
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/Bloorize/timetracker/internal/version"
)

const githubAPIURL = "https://api.github.com/repos/%s/%s/releases/latest"

type githubRelease struct {
	TagName string `json:"tag_name"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// SelfUpdate checks the latest release and swaps the executable in place
// when it is newer than the running version. Development builds skip the
// check entirely.
func SelfUpdate(owner, repo string) error {
	current := version.Version
	if current == "dev" {
		return nil
	}

	tag, downloadURL, err := latestAsset(owner, repo)
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}
	if tag == "" || downloadURL == "" {
		return nil
	}

	if compareVersions(current, tag) >= 0 {
		return nil
	}

	log.Printf("updating %s -> %s", current, tag)

	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating executable: %w", err)
	}

	if err := downloadAndReplace(downloadURL, executable); err != nil {
		return fmt.Errorf("applying update: %w", err)
	}

	log.Printf("updated to %s, restart to pick it up", tag)
	return nil
}

// latestAsset returns the latest release tag and the download URL for the
// asset matching the current OS and architecture.
func latestAsset(owner, repo string) (string, string, error) {
	resp, err := http.Get(fmt.Sprintf(githubAPIURL, owner, repo))
	if err != nil {
		return "", "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("github api status %s", resp.Status)
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return "", "", err
	}

	platform := fmt.Sprintf("%s-%s", runtime.GOOS, runtime.GOARCH)
	var suffix string
	switch runtime.GOOS {
	case "windows":
		suffix = platform + ".zip"
	case "linux", "darwin":
		suffix = platform + ".tar.xz"
	default:
		return "", "", fmt.Errorf("no release assets for %s", platform)
	}

	for _, asset := range release.Assets {
		if strings.HasSuffix(asset.Name, suffix) && strings.Contains(asset.Name, "timetracker") {
			return release.TagName, asset.BrowserDownloadURL, nil
		}
	}
	return "", "", fmt.Errorf("no asset for %s in release %s", platform, release.TagName)
}

func downloadAndReplace(downloadURL, executable string) error {
	tmpDir, err := os.MkdirTemp("", "timetracker-update-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	archive := filepath.Join(tmpDir, filepath.Base(downloadURL))

	resp, err := http.Get(downloadURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download status %s", resp.Status)
	}

	out, err := os.Create(archive)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	out.Close()

	wantName := filepath.Base(executable)
	var extracted string
	switch {
	case strings.HasSuffix(archive, ".tar.xz"):
		extracted, err = extractTarXz(archive, tmpDir, wantName)
	case strings.HasSuffix(archive, ".zip"):
		extracted, err = extractZip(archive, tmpDir, wantName)
	default:
		return fmt.Errorf("unsupported archive %s", filepath.Base(archive))
	}
	if err != nil {
		return err
	}

	return replaceExecutable(executable, extracted)
}

func extractTarXz(archive, destDir, wantName string) (string, error) {
	f, err := os.Open(archive)
	if err != nil {
		return "", err
	}
	defer f.Close()

	xzr, err := xz.NewReader(f)
	if err != nil {
		return "", err
	}

	tr := tar.NewReader(xzr)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if header.Typeflag != tar.TypeReg || filepath.Base(header.Name) != wantName {
			continue
		}

		dest := filepath.Join(destDir, wantName)
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, header.FileInfo().Mode())
		if err != nil {
			return "", err
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return "", err
		}
		out.Close()
		return dest, nil
	}
	return "", fmt.Errorf("%s not found in archive", wantName)
}

func extractZip(archive, destDir, wantName string) (string, error) {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return "", err
	}
	defer r.Close()

	for _, f := range r.File {
		if filepath.Base(f.Name) != wantName {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return "", err
		}

		dest := filepath.Join(destDir, wantName)
		out, err := os.OpenFile(dest, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, f.Mode())
		if err != nil {
			rc.Close()
			return "", err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return "", err
		}
		return dest, nil
	}
	return "", fmt.Errorf("%s not found in archive", wantName)
}

// replaceExecutable renames the running binary aside and moves the new one
// into place. On Windows the backup stays locked until the process exits.
func replaceExecutable(oldPath, newPath string) error {
	backup := oldPath + ".old"
	if err := os.Rename(oldPath, backup); err != nil {
		return fmt.Errorf("renaming current executable: %w", err)
	}

	if err := os.Rename(newPath, oldPath); err != nil {
		_ = os.Rename(backup, oldPath)
		return fmt.Errorf("moving new executable into place: %w", err)
	}

	if runtime.GOOS != "windows" {
		if err := os.Chmod(oldPath, 0755); err != nil {
			return fmt.Errorf("setting executable permissions: %w", err)
		}
		_ = os.Remove(backup)
	}

	return nil
}

// compareVersions compares dotted version strings numerically, ignoring a
// leading v. Returns -1, 0 or 1.
func compareVersions(a, b string) int {
	aParts := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bParts := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(aParts)
	if len(bParts) > n {
		n = len(bParts)
	}

	for i := 0; i < n; i++ {
		var av, bv int
		if i < len(aParts) {
			av, _ = strconv.Atoi(aParts[i])
		}
		if i < len(bParts) {
			bv, _ = strconv.Atoi(bParts[i])
		}
		if av < bv {
			return -1
		}
		if av > bv {
			return 1
		}
	}
	return 0
}
