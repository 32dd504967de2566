package medicamentos

// Config holds input locations and merge settings for the pipeline.
type Config struct {
	// DataDir holds the raw ANVISA and CMED files.
	DataDir string `mapstructure:"data_dir" default:"dados_brutos"`
	// ProcessedDir receives the canonical exchange file.
	ProcessedDir string `mapstructure:"processed_dir" default:"dados_processados"`
	// ManualDir holds reference files for the manual loader.
	ManualDir string `mapstructure:"manual_dir" default:"dados_manuais"`
	// AnvisaFile is the ANVISA registration file name inside DataDir.
	AnvisaFile string `mapstructure:"anvisa_file" default:"DADOS_ABERTOS_MEDICAMENTOS.csv"`
	// AnvisaEncoding is the character set of the ANVISA file.
	AnvisaEncoding string `mapstructure:"anvisa_encoding" default:"latin1"`
	// CMEDPattern selects the CMED price list; the most recent match wins.
	CMEDPattern string `mapstructure:"cmed_pattern" default:"cmed_*.csv"`
	// CMEDEncoding is the character set of the CMED file.
	CMEDEncoding string `mapstructure:"cmed_encoding" default:"utf-8"`
	// CMEDSkipRows is the number of preamble lines before the CMED header.
	CMEDSkipRows int `mapstructure:"cmed_skip_rows" default:"41"`
	// UnifiedFile is the canonical exchange file name inside ProcessedDir.
	UnifiedFile string `mapstructure:"unified_file" default:"medicamentos_unificados.csv"`
	// IdentifierLength is the canonical registration length after normalization.
	IdentifierLength int `mapstructure:"identifier_length" default:"9"`
	// MatchPolicy decides how one registration joins several price rows: first, reject or all.
	MatchPolicy string `mapstructure:"match_policy" default:"first"`
	// Table is the production table name.
	Table string `mapstructure:"table" default:"medicamentos"`
	// Alias is the production search alias.
	Alias string `mapstructure:"alias" default:"medicamentos"`
	// Archive uploads each canonical file to the bucket when storage is enabled.
	Archive bool `mapstructure:"archive" default:"true"`
	// ArchiveKeep is the number of archived canonical files kept per dataset. Zero keeps all.
	ArchiveKeep int `mapstructure:"archive_keep" default:"12"`
}
