// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"os"
	"path/filepath"
	"testing"

	"decred.org/dexcore/server/db/driver/badgerdb"
	"decred.org/dexcore/server/db/driver/bolt"
	"decred.org/dexcore/server/db/driver/pg"
)

func Test_cleanAndExpandPath(t *testing.T) {
	t.Setenv("DEXCORE_TEST_DIR", "/tmp/dexcore")
	tests := []struct {
		path string
		want string
	}{
		{"", ""},
		{"/a/b/../c", "/a/c"},
		{"$DEXCORE_TEST_DIR/data", "/tmp/dexcore/data"},
		{"rel/./dir/", "rel/dir"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := cleanAndExpandPath(tt.path); got != tt.want {
				t.Errorf("cleanAndExpandPath() = %v, want %v", got, tt.want)
			}
		})
	}
	if got := cleanAndExpandPath("~/x"); got == "~/x" || filepath.Base(got) != "x" {
		t.Errorf("home directory not expanded: %s", got)
	}
}

func Test_preParse(t *testing.T) {
	preCfg, err := preParse([]string{"--appdata=/tmp/dc", "-V", "create", "--ask=0x01"})
	if err != nil {
		t.Fatalf("preParse error: %v", err)
	}
	if preCfg.AppDataDir != "/tmp/dc" || !preCfg.ShowVersion {
		t.Fatalf("wrong pre-parsed config %+v", preCfg)
	}
}

func Test_finalizeConfig(t *testing.T) {
	appData := t.TempDir()
	cfg := defaultFlags()
	cfg.AppDataDir = appData
	cfg.DataDir = "mydata"
	cfg.DebugLevel = "debug,BOOK=trace"
	coreCfg, err := finalizeConfig(&cfg, "NONE (defaults)")
	if err != nil {
		t.Fatalf("finalizeConfig error: %v", err)
	}
	defer func() {
		logRotator.Close()
		logRotator = nil
	}()

	if coreCfg.DataDir != filepath.Join(appData, "mydata") {
		t.Fatalf("wrong data dir %s", coreCfg.DataDir)
	}
	if coreCfg.DBPath != filepath.Join(appData, "mydata", defaultDBFilename) {
		t.Fatalf("wrong db path %s", coreCfg.DBPath)
	}
	if len(coreCfg.Proxies) != 2 {
		t.Fatalf("default proxies not set: %v", coreCfg.Proxies)
	}
	if coreCfg.DBDriver != defaultDBDriver {
		t.Fatalf("wrong db driver %s", coreCfg.DBDriver)
	}
	if _, err := os.Stat(filepath.Join(appData, defaultLogDirname)); err != nil {
		t.Fatalf("log directory not created: %v", err)
	}
	if lvl := coreCfg.LogMaker.Level("BOOK"); lvl.String() != "TRC" {
		t.Fatalf("wrong BOOK level %s", lvl)
	}

	cfg = defaultFlags()
	cfg.AppDataDir = t.TempDir()
	cfg.DebugLevel = "NOPE=debug"
	if _, err := finalizeConfig(&cfg, ""); err == nil {
		t.Fatalf("no error for unknown subsystem")
	}
}

func Test_dbConfig(t *testing.T) {
	cfg := defaultFlags()
	cfg.DataDir = "/data"
	dbPath := "/data/dexcore.db"

	c, err := dbConfig(&cfg, dbPath)
	if err != nil {
		t.Fatalf("bolt config error: %v", err)
	}
	if bc, ok := c.(*bolt.Config); !ok || bc.Path != dbPath {
		t.Fatalf("wrong bolt config %#v", c)
	}

	cfg.DBDriver = "badger"
	c, err = dbConfig(&cfg, dbPath)
	if err != nil {
		t.Fatalf("badger config error: %v", err)
	}
	if bc, ok := c.(*badgerdb.Config); !ok || bc.Path != filepath.Join("/data", defaultBadgerDirname) {
		t.Fatalf("wrong badger config %#v", c)
	}

	cfg.DBDriver = "pg"
	c, err = dbConfig(&cfg, dbPath)
	if err != nil {
		t.Fatalf("pg config error: %v", err)
	}
	pc, ok := c.(*pg.Config)
	if !ok || pc.Host != "127.0.0.1" || pc.Port != "5432" || pc.User != defaultPGUser || pc.DBName != defaultPGDBName {
		t.Fatalf("wrong pg config %#v", c)
	}

	cfg.PGHost = "/run/postgresql"
	if c, err = dbConfig(&cfg, dbPath); err != nil || c.(*pg.Config).Port != "" {
		t.Fatalf("wrong socket config %#v, %v", c, err)
	}
	for _, host := range []string{"localhost", "localhost:99999", "localhost:pg"} {
		cfg.PGHost = host
		if _, err := dbConfig(&cfg, dbPath); err == nil {
			t.Fatalf("no error for pg host %q", host)
		}
	}

	cfg.DBDriver = "nosuchdriver"
	if _, err := dbConfig(&cfg, dbPath); err == nil {
		t.Fatalf("no error for unknown driver")
	}
}
