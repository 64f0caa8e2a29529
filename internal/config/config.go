package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig    `mapstructure:"server"`
	Database DatabaseConfig  `mapstructure:"database"`
	Redis    RedisConfig     `mapstructure:"redis"`
	JWT      JWTConfig       `mapstructure:"jwt"`
	Game     GameConfig      `mapstructure:"game"`
	Wallet   WalletConfig    `mapstructure:"wallet"`
	Admin    AdminSeedConfig `mapstructure:"admin"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

// GameConfig tunes table rules. Zero values fall back to defaults applied
// in the game service.
type GameConfig struct {
	DeckCount          int     `mapstructure:"deckCount"`
	PenetrationLimit   int     `mapstructure:"penetrationLimit"`
	SeatCap            int     `mapstructure:"seatCap"`
	TurnTimeoutSec     int     `mapstructure:"turnTimeoutSec"`
	SweepIntervalSec   int     `mapstructure:"sweepIntervalSec"`
	BetOptions         []int64 `mapstructure:"betOptions"`
	DealerHitsSoft17   bool    `mapstructure:"dealerHitsSoft17"`
	SplitBlackjackPays bool    `mapstructure:"splitBlackjackPays"` // split 21 pays 3:2 instead of 1:1
}

type WalletConfig struct {
	SeedBalance   int64 `mapstructure:"seedBalance"`
	DailyBonus    int64 `mapstructure:"dailyBonus"`
	ReferralBonus int64 `mapstructure:"referralBonus"`
}

type AdminSeedConfig struct {
	DefaultUsername string `mapstructure:"defaultUsername"`
	DefaultPassword string `mapstructure:"defaultPassword"`
}

var GlobalConfig *Config

func LoadConfig(path string) {
	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
	GlobalConfig = &cfg
}
