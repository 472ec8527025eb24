package repo

import (
	"github.com/cpacia/bouncer/database"
	"github.com/cpacia/bouncer/models"
	"io/ioutil"
	"os"
	"path"
	"testing"
)

func TestNewRepo(t *testing.T) {
	dir, err := ioutil.TempDir("", "bouncer-repo")
	if err != nil {
		t.Fatal(err)
	}
	dir = path.Join(dir, "newRepoTest")

	if IsInitialized(dir) {
		t.Fatal("Repo reported initialized before creation")
	}

	r, err := NewRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer r.DestroyRepo()

	if r.DB() == nil {
		t.Error("Failed to initialize the database")
	}
	if r.DataDir() != dir {
		t.Errorf("Expected data dir %s, got %s", dir, r.DataDir())
	}
	if !IsInitialized(dir) {
		t.Error("Repo not reported initialized after creation")
	}

	v, err := r.Version()
	if err != nil {
		t.Fatal(err)
	}
	if v != defaultRepoVersion {
		t.Errorf("Expected version %d, got %d", defaultRepoVersion, v)
	}
}

func TestMockRepo_Migrated(t *testing.T) {
	r, err := MockRepo()
	if err != nil {
		t.Fatal(err)
	}
	defer r.DestroyRepo()

	err = r.DB().Update(func(tx database.Tx) error {
		if err := tx.Save(&models.ReceiveOutcome{ID: "a"}); err != nil {
			return err
		}
		return tx.Save(&models.SendOutcome{ID: "b"})
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestCheckWriteable(t *testing.T) {
	dir, err := ioutil.TempDir("", "bouncer-writeable")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)

	if err := checkWriteable(dir); err != nil {
		t.Error(err)
	}

	sub := path.Join(dir, "a", "b")
	if err := checkWriteable(sub); err != nil {
		t.Error(err)
	}
	if _, err := os.Stat(sub); err != nil {
		t.Error("Directory was not created")
	}
}
