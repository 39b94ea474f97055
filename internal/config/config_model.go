package config

import "time"

var Conf Config

type Config struct {
	Server     Server     `mapstructure:"server" json:"server" yaml:"server"`
	Datasource Datasource `mapstructure:"database" json:"database" yaml:"database"`
	Auth       Auth       `mapstructure:"auth" json:"-" yaml:"auth"`
	Redis      Redis      `mapstructure:"redis" json:"redis" yaml:"redis"`
	Search     Search     `mapstructure:"search" json:"search" yaml:"search"`
	Export     Export     `mapstructure:"export" json:"export" yaml:"export"`
	Log        Log        `mapstructure:"log" json:"log" yaml:"log"`
}

type Server struct {
	Port          string `mapstructure:"port" json:"port" yaml:"port"`
	WebDir        string `mapstructure:"web_dir" json:"webDir" yaml:"web_dir"`
	WebdavEnabled bool   `mapstructure:"webdav_enabled" json:"webdavEnabled" yaml:"webdav_enabled"`
	SftpEnabled   bool   `mapstructure:"sftp_enabled" json:"sftpEnabled" yaml:"sftp_enabled"`
	SftpPort      int    `mapstructure:"sftp_port" json:"sftpPort" yaml:"sftp_port"`
}

// Driver는 sqlite 또는 postgres
type Datasource struct {
	Driver string `mapstructure:"driver" json:"driver" yaml:"driver"`
	URL    string `mapstructure:"url" json:"url" yaml:"url"`
}

type Auth struct {
	Secret        string        `mapstructure:"secret" yaml:"secret"`
	Issuer        string        `mapstructure:"issuer" yaml:"issuer"`
	AccessTTL     time.Duration `mapstructure:"access_ttl" yaml:"access_ttl"`
	RefreshTTL    time.Duration `mapstructure:"refresh_ttl" yaml:"refresh_ttl"`
	AdminUser     string        `mapstructure:"admin_user" yaml:"admin_user"`
	AdminPassword string        `mapstructure:"admin_password" yaml:"admin_password"`
	AdminNickname string        `mapstructure:"admin_nickname" yaml:"admin_nickname"`
	AllowSignup   bool          `mapstructure:"allow_signup" yaml:"allow_signup"`
}

type Redis struct {
	Enabled  bool          `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	URL      string        `mapstructure:"url" json:"-" yaml:"url"`
	ModalTTL time.Duration `mapstructure:"modal_ttl" json:"modalTtl" yaml:"modal_ttl"`
}

type Search struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	URL     string `mapstructure:"url" json:"url" yaml:"url"`
	APIKey  string `mapstructure:"api_key" json:"-" yaml:"api_key"`
}

type Export struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Endpoint  string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" json:"-" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" json:"-" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl" json:"useSsl" yaml:"use_ssl"`
}

type Log struct {
	Level  string `mapstructure:"level" json:"level" yaml:"level"`
	Format string `mapstructure:"format" json:"format" yaml:"format"`
}
