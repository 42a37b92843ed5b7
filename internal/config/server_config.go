package config

import (
	"path/filepath"
	"runtime"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/kashguard/go-recovery-wallet/internal/backup"
	"github.com/kashguard/go-recovery-wallet/internal/chain"
	"github.com/kashguard/go-recovery-wallet/internal/util"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Recovery holds the parameters a new wallet is created with.
type Recovery struct {
	TotalShares  uint8
	NeededShares uint8
	Delay        uint32
	Fee          uint32
}

type Logger struct {
	Level              zerolog.Level
	PrettyPrintConsole bool
}

type Server struct {
	Recovery      Recovery
	Network       string
	DataDir       string
	ExportWorkers int
	Logger        Logger
}

// DotEnvTryLoad loads a .env file into the process env if present. Variables
// that are already set win.
func DotEnvTryLoad(path string) {
	if err := gotenv.Load(path); err != nil {
		log.Debug().Err(err).Str("path", path).Msg("No .env file loaded")
	}
}

func DefaultServiceConfigFromEnv() Server {
	DotEnvTryLoad(util.GetEnv("RECOVERY_DOTENV", ".env"))

	return Server{
		Recovery: Recovery{
			TotalShares:  util.GetEnvAsUint8("RECOVERY_TOTAL_SHARES", 3),
			NeededShares: util.GetEnvAsUint8("RECOVERY_NEEDED_SHARES", 2),
			Delay:        util.GetEnvAsUint32("RECOVERY_DELAY", 144),
			Fee:          util.GetEnvAsUint32("RECOVERY_FEE", 250),
		},
		Network:       util.GetEnv("RECOVERY_NETWORK", "mainnet"),
		DataDir:       util.GetEnv("RECOVERY_DATA_DIR", filepath.Join(".", "recovery-wallet")),
		ExportWorkers: util.GetEnvAsInt("RECOVERY_EXPORT_WORKERS", runtime.GOMAXPROCS(0)),
		Logger: Logger{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.InfoLevel.String())),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", true),
		},
	}
}

// LoadFile overlays the keys set in a yaml, toml or json config file on s.
// Keys absent from the file keep their current value.
func (s *Server) LoadFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	if v.IsSet("recovery.total_shares") {
		s.Recovery.TotalShares = uint8(v.GetUint("recovery.total_shares"))
	}
	if v.IsSet("recovery.needed_shares") {
		s.Recovery.NeededShares = uint8(v.GetUint("recovery.needed_shares"))
	}
	if v.IsSet("recovery.delay") {
		s.Recovery.Delay = v.GetUint32("recovery.delay")
	}
	if v.IsSet("recovery.fee") {
		s.Recovery.Fee = v.GetUint32("recovery.fee")
	}
	if v.IsSet("network") {
		s.Network = v.GetString("network")
	}
	if v.IsSet("data_dir") {
		s.DataDir = v.GetString("data_dir")
	}
	if v.IsSet("export_workers") {
		s.ExportWorkers = v.GetInt("export_workers")
	}
	if v.IsSet("logger.level") {
		s.Logger.Level = util.LogLevelFromString(v.GetString("logger.level"))
	}
	if v.IsSet("logger.pretty_print_console") {
		s.Logger.PrettyPrintConsole = v.GetBool("logger.pretty_print_console")
	}

	log.Debug().Str("path", v.ConfigFileUsed()).Msg("Loaded config file")
	return nil
}

func (s Server) RecoveryParams() backup.RecoveryParams {
	return backup.RecoveryParams{
		TotalShares:  s.Recovery.TotalShares,
		NeededShares: s.Recovery.NeededShares,
		Delay:        s.Recovery.Delay,
		Fee:          s.Recovery.Fee,
	}
}

func (s Server) NetworkParams() (*chaincfg.Params, error) {
	return chain.NetworkParams(s.Network)
}

// Validate checks the parts of the config every command relies on. Recovery
// params are only checked when a wallet is created.
func (s Server) Validate() error {
	if _, err := s.NetworkParams(); err != nil {
		return err
	}
	if s.DataDir == "" {
		return errors.New("data dir is required")
	}
	if s.ExportWorkers < 0 {
		return errors.Errorf("export workers must not be negative, got %d", s.ExportWorkers)
	}
	return nil
}
