package app

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const currentDatabaseVersion = 1

// checkDatabaseVersion reads the version file of the data directory at
// dataDir. A missing file means the data directory is new.
func checkDatabaseVersion(dataDir string) (doesVersionFileExist bool, err error) {
	versionBytes, err := os.ReadFile(versionFilePath(dataDir))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.WithStack(err)
	}

	databaseVersion, err := strconv.Atoi(strings.TrimSpace(string(versionBytes)))
	if err != nil {
		return true, errors.Wrapf(err, "malformed database version file %s", versionFilePath(dataDir))
	}

	if databaseVersion != currentDatabaseVersion {
		return true, errors.Errorf("Invalid database version %d. Expected version: %d",
			databaseVersion, currentDatabaseVersion)
	}

	return true, nil
}

func createDatabaseVersionFile(dataDir string) error {
	versionString := strconv.Itoa(currentDatabaseVersion)
	return errors.WithStack(os.WriteFile(versionFilePath(dataDir), []byte(versionString), 0600))
}

func versionFilePath(dataDir string) string {
	return filepath.Join(dataDir, "version")
}
