// This code is available on the terms of the project LICENSE.md file,
// also available online at https://blueoakcouncil.org/license/1.0.0.

package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"decred.org/dexcore/dex"
	"decred.org/dexcore/server/db"
	"decred.org/dexcore/server/db/driver/badgerdb"
	"decred.org/dexcore/server/db/driver/bolt"
	"decred.org/dexcore/server/db/driver/pg"
	"github.com/decred/dcrd/dcrutil/v4"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "dexcore.conf"
	defaultLogFilename    = "dexcore.log"
	defaultDBFilename     = "dexcore.db"
	defaultBadgerDirname  = "dexcore.badger"
	defaultDataDirname    = "data"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultMaxLogZips     = 16
	defaultDBDriver       = "bolt"
	defaultPGHost         = "127.0.0.1:5432"
	defaultPGUser         = "dexcore"
	defaultPGDBName       = "dexcore"
)

var (
	defaultAppDataDir = dcrutil.AppDataDir("dexcore", false)
	defaultProxies    = []string{"fungible", "nft"}
)

// coreConfig is the data that is required to set up the core.
type coreConfig struct {
	DataDir  string
	DBDriver string
	// DBPath is the bolt database file. It also holds the asset ledger when
	// the archive driver has no ledger of its own.
	DBPath    string
	DBConfig  any
	Proxies   []string
	NoArchive bool
	LogMaker  *dex.LoggerMaker
}

// logger creates a logger for the subsystem, or a disabled logger if logging
// is not configured.
func (cfg *coreConfig) logger(parent, name string) dex.Logger {
	if cfg.LogMaker == nil {
		return dex.Disabled
	}
	return cfg.LogMaker.SubLogger(parent, name)
}

type flagsData struct {
	// General application behavior
	AppDataDir  string `short:"A" long:"appdata" description:"Path to application home directory"`
	ConfigFile  string `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string `short:"b" long:"datadir" description:"Directory to store data"`
	LogDir      string `long:"logdir" description:"Directory to log output."`
	DebugLevel  string `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}, with optional SUBSYS=level overrides"`
	MaxLogZips  int    `long:"maxlogzips" description:"The number of zipped log files created by the log rotator to be retained. Setting to 0 will keep all."`
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`

	DBDriver  string   `long:"dbdriver" description:"The archive database driver {bolt, badger, pg}."`
	Proxies   []string `long:"proxy" description:"An asset proxy driver to load. May be repeated."`
	NoArchive bool     `long:"noarchive" description:"Keep the order book and asset ledger in memory for this invocation, without opening the database."`

	PGDBName string `long:"pgdbname" description:"PostgreSQL DB name."`
	PGUser   string `long:"pguser" description:"PostgreSQL DB user."`
	PGPass   string `long:"pgpass" description:"PostgreSQL DB password."`
	PGHost   string `long:"pghost" description:"PostgreSQL server host:port or UNIX socket (e.g. /run/postgresql)."`
}

// cleanAndExpandPath expands environment variables and leading ~ in the passed
// path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Do not try to clean the empty string
	if path == "" {
		return ""
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows cmd.exe-style
	// %VARIABLE%, but the variables can still be expanded via POSIX-style
	// $VARIABLE.
	path = os.ExpandEnv(path)
	if !strings.HasPrefix(path, "~") {
		return filepath.Clean(path)
	}

	// Expand initial ~ to the current user's home directory, or ~otheruser to
	// otheruser's home directory.  On Windows, both forward and backward
	// slashes can be used.
	path = path[1:]

	var pathSeparators string
	if runtime.GOOS == "windows" {
		pathSeparators = string(os.PathSeparator) + "/"
	} else {
		pathSeparators = string(os.PathSeparator)
	}

	userName := ""
	if i := strings.IndexAny(path, pathSeparators); i != -1 {
		userName = path[:i]
		path = path[i:]
	}

	homeDir := ""
	var u *user.User
	var err error
	if userName == "" {
		u, err = user.Current()
	} else {
		u, err = user.Lookup(userName)
	}
	if err == nil {
		homeDir = u.HomeDir
	}
	// Fallback to CWD if user lookup fails or user has no home directory.
	if homeDir == "" {
		homeDir = "."
	}

	return filepath.Join(homeDir, path)
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly. An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) (*dex.LoggerMaker, error) {
	lm, err := dex.NewLoggerMaker(logWriter{}, debugLevel)
	if err != nil {
		return nil, err
	}
	for subsysID := range lm.Levels {
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "the specified subsystem [%v] is invalid, " +
				"supported subsystems %v"
			return nil, fmt.Errorf(str, subsysID, supportedSubsystems())
		}
	}
	setLogLevels(lm)
	return lm, nil
}

// defaultFlags is the default configuration.
func defaultFlags() flagsData {
	return flagsData{
		AppDataDir: defaultAppDataDir,
		// Defaults for ConfigFile, LogDir, and DataDir are set relative to
		// AppDataDir. They are not to be set here.
		MaxLogZips: defaultMaxLogZips,
		DebugLevel: defaultLogLevel,
		DBDriver:   defaultDBDriver,
		PGDBName:   defaultPGDBName,
		PGUser:     defaultPGUser,
		PGHost:     defaultPGHost,
	}
}

// pgConfig creates the pg driver configuration. For UNIX sockets, no port is
// parsed from the host.
func pgConfig(cfg *flagsData) (*pg.Config, error) {
	dbHost, dbPort := cfg.PGHost, ""
	if !strings.HasPrefix(dbHost, "/") {
		var err error
		dbHost, dbPort, err = net.SplitHostPort(cfg.PGHost)
		if err != nil {
			return nil, fmt.Errorf("invalid DB host %q: %w", cfg.PGHost, err)
		}
		if _, err := strconv.ParseUint(dbPort, 10, 16); err != nil {
			return nil, fmt.Errorf("invalid DB port %q: %w", dbPort, err)
		}
	}
	return &pg.Config{
		Host:   dbHost,
		Port:   dbPort,
		User:   cfg.PGUser,
		Pass:   cfg.PGPass,
		DBName: cfg.PGDBName,
	}, nil
}

// dbConfig creates the configuration of the archive driver.
func dbConfig(cfg *flagsData, dbPath string) (any, error) {
	switch cfg.DBDriver {
	case "bolt":
		return &bolt.Config{Path: dbPath}, nil
	case "badger":
		return &badgerdb.Config{Path: filepath.Join(cfg.DataDir, defaultBadgerDirname)}, nil
	case "pg":
		return pgConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown database driver %q, available drivers %v", cfg.DBDriver, db.Drivers())
	}
}

// preParse parses the command line for the appdata, configfile, version and
// debuglevel options, ignoring everything else.
func preParse(args []string) (*flagsData, error) {
	var preCfg flagsData // zero values as defaults
	preParser := flags.NewParser(&preCfg, flags.IgnoreUnknown)
	if _, err := preParser.ParseArgs(args); err != nil {
		return nil, err
	}
	return &preCfg, nil
}

// loadConfigFile locates the config file and parses it into the parser's
// options. It returns the config file name for logging.
func loadConfigFile(parser *flags.Parser, cfg, preCfg *flagsData) (string, error) {
	var err error
	// If a non-default appdata folder is specified on the command line, it may
	// be necessary adjust the config file location. If the the config file
	// location was not specified on the command line, the default location
	// should be under the non-default appdata directory. However, if the config
	// file was specified on the command line, it should be used regardless of
	// the appdata directory.
	if preCfg.AppDataDir != "" {
		// appdata was set on the command line. If it is not absolute, make it
		// relative to cwd.
		cfg.AppDataDir, err = filepath.Abs(cleanAndExpandPath(preCfg.AppDataDir))
		if err != nil {
			return "", fmt.Errorf("unable to determine working directory: %w", err)
		}
	}
	isDefaultConfigFile := preCfg.ConfigFile == ""
	configFile := preCfg.ConfigFile
	if isDefaultConfigFile {
		configFile = filepath.Join(cfg.AppDataDir, defaultConfigFilename)
	} else if !filepath.IsAbs(configFile) {
		configFile = filepath.Join(cfg.AppDataDir, configFile)
	}

	// Do not error if the default config file is missing.
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		// Non-default config file must exist.
		if !isDefaultConfigFile {
			return "", err
		}
		return "NONE (defaults)", nil
	}
	if err := flags.NewIniParser(parser).ParseFile(configFile); err != nil {
		return "", err
	}
	return configFile, nil
}

// finalizeConfig resolves the directories, starts logging, and creates the
// coreConfig. It is called once the command line has been parsed.
func finalizeConfig(cfg *flagsData, configFile string) (*coreConfig, error) {
	// Create the app data directory if it doesn't already exist.
	err := os.MkdirAll(cfg.AppDataDir, 0700)
	if err != nil {
		// Show a nicer error message if it's because a symlink is linked to a
		// directory that does not exist (probably because it's not mounted).
		var e *os.PathError
		if errors.As(err, &e) && os.IsExist(err) {
			if link, lerr := os.Readlink(e.Path); lerr == nil {
				str := "is symlink %s -> %s mounted?"
				err = fmt.Errorf(str, e.Path, link)
			}
		}
		return nil, fmt.Errorf("failed to create home directory: %w", err)
	}

	// If datadir or logdir are defaults or non-default relative paths, prepend
	// the appdata directory.
	if cfg.DataDir == "" {
		cfg.DataDir = filepath.Join(cfg.AppDataDir, defaultDataDirname)
	} else if !filepath.IsAbs(cfg.DataDir) {
		cfg.DataDir = filepath.Join(cfg.AppDataDir, cfg.DataDir)
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.AppDataDir, defaultLogDirname)
	} else if !filepath.IsAbs(cfg.LogDir) {
		cfg.LogDir = filepath.Join(cfg.AppDataDir, cfg.LogDir)
	}
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	if !cfg.NoArchive {
		// Create the data folder if it does not exist.
		if err = os.MkdirAll(cfg.DataDir, 0700); err != nil {
			return nil, err
		}
	}

	// Initialize log rotation. After log rotation has been initialized, the
	// logger variables may be used. This creates the LogDir if needed.
	if cfg.MaxLogZips < 0 {
		cfg.MaxLogZips = 0
	}
	if err := initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename), cfg.MaxLogZips); err != nil {
		return nil, err
	}

	// Parse, validate, and set debug log level(s).
	logMaker, err := parseAndSetDebugLevels(cfg.DebugLevel)
	if err != nil {
		return nil, err
	}

	log.Debugf("App data folder: %s", cfg.AppDataDir)
	log.Debugf("Data folder:     %s", cfg.DataDir)
	log.Debugf("Log folder:      %s", cfg.LogDir)
	log.Debugf("Config file:     %s", configFile)

	proxies := cfg.Proxies
	if len(proxies) == 0 {
		proxies = defaultProxies
	}

	dbPath := filepath.Join(cfg.DataDir, defaultDBFilename)
	var dbCfg any
	if !cfg.NoArchive {
		if dbCfg, err = dbConfig(cfg, dbPath); err != nil {
			return nil, err
		}
	}

	return &coreConfig{
		DataDir:   cfg.DataDir,
		DBDriver:  cfg.DBDriver,
		DBPath:    dbPath,
		DBConfig:  dbCfg,
		Proxies:   proxies,
		NoArchive: cfg.NoArchive,
		LogMaker:  logMaker,
	}, nil
}
