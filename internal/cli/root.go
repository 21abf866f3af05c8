package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vitoramaral10/local-organizer/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "local-organizer",
		Short: "Organiza arquivos locais usando IA",
		Long: `Local Organizer é uma ferramenta CLI que classifica arquivos locais
com um modelo de linguagem (OpenAI ou compatível, ou Gemini) e propõe
uma estrutura de pastas para organizá-los.

Fluxo:
  1. Lista os arquivos da pasta informada
  2. Classifica cada arquivo (texto ou imagem) em paralelo
  3. Pede à IA um plano de pastas com base em todas as classificações
  4. Mostra o plano e, com --dest, move os arquivos`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}

	// Flags globais
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "arquivo de configuração (padrão: ~/.config/local-organizer/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "nível de log (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("dry-run", false, "simula operações sem mover arquivos")

	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("dry_run", rootCmd.PersistentFlags().Lookup("dry-run"))

	// Subcomandos
	rootCmd.AddCommand(newOrganizeCmd())
	rootCmd.AddCommand(newAuthCmd())

	return rootCmd
}

func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("erro na configuração: %w", err)
	}

	// Setup logging
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)})
	slog.SetDefault(slog.New(handler).With("run", uuid.NewString()))

	return nil
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
