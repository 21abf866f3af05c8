package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vitoramaral10/local-organizer/internal/classifier"
	"github.com/vitoramaral10/local-organizer/internal/config"
	"github.com/vitoramaral10/local-organizer/internal/detect"
	"github.com/vitoramaral10/local-organizer/internal/llm"
	"github.com/vitoramaral10/local-organizer/internal/organizer"
	"github.com/vitoramaral10/local-organizer/internal/producer"
	"github.com/vitoramaral10/local-organizer/internal/scan"
)

func newOrganizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize <pasta>",
		Short: "Classifica os arquivos de uma pasta e propõe uma organização",
		Long: `Classifica cada arquivo (texto ou imagem) com a IA, pede um plano
de pastas com base em todas as classificações e, com --dest, move os arquivos.`,
		Args: cobra.ExactArgs(1),
		RunE: runOrganize,
	}

	cmd.Flags().String("provider", config.ProviderOpenAI, "provedor de IA (openai, gemini)")
	cmd.Flags().String("api-key", "", "API key do provedor")
	cmd.Flags().String("base-url", llm.DefaultOpenAIBaseURL, "endpoint compatível com OpenAI")
	cmd.Flags().String("model", "gpt-4o-mini", "modelo a usar")
	cmd.Flags().String("prompt-file", "", "arquivo com o prompt do sistema")
	cmd.Flags().Int("workers", 0, "arquivos classificados em paralelo (0 = sem limite)")
	cmd.Flags().Float64("rate-limit", 0, "requisições por segundo (0 = sem limite)")
	cmd.Flags().String("mime-filter", "", "classifica apenas tipos com este prefixo (ex: text, image)")
	cmd.Flags().StringSlice("include", scan.DefaultInclude, "padrões de arquivos a incluir")
	cmd.Flags().StringSlice("exclude", scan.DefaultExclude, "padrões de arquivos a ignorar")
	cmd.Flags().String("dest", "", "pasta onde aplicar o plano (sem ela, apenas mostra)")
	cmd.Flags().Bool("show-classifications", false, "mostra a classificação de cada arquivo")

	viper.BindPFlag("provider", cmd.Flags().Lookup("provider"))
	viper.BindPFlag("api_key", cmd.Flags().Lookup("api-key"))
	viper.BindPFlag("base_url", cmd.Flags().Lookup("base-url"))
	viper.BindPFlag("model", cmd.Flags().Lookup("model"))
	viper.BindPFlag("prompt_file", cmd.Flags().Lookup("prompt-file"))
	viper.BindPFlag("workers", cmd.Flags().Lookup("workers"))
	viper.BindPFlag("rate_limit", cmd.Flags().Lookup("rate-limit"))
	viper.BindPFlag("mime_filter", cmd.Flags().Lookup("mime-filter"))
	viper.BindPFlag("include", cmd.Flags().Lookup("include"))
	viper.BindPFlag("exclude", cmd.Flags().Lookup("exclude"))

	return cmd
}

func runOrganize(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			fmt.Println("\n\n⚠️  Interrupção recebida, encerrando de forma segura...")
			cancel()
		case <-ctx.Done():
		}
	}()

	dest, _ := cmd.Flags().GetString("dest")
	showClassifications, _ := cmd.Flags().GetBool("show-classifications")

	settings, err := cfg.Settings()
	if err != nil {
		return err
	}

	// === SETUP: API key e cliente ===
	if err := ensureAPIKey(); err != nil {
		return err
	}
	client, closeClient, err := newClient(ctx)
	if err != nil {
		return err
	}
	defer closeClient()

	// === ETAPA 1: Listar arquivos ===
	fmt.Printf("📋 Listando arquivos em %s...\n", args[0])
	files, err := scan.Files(args[0], cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Println("✅ Nenhum arquivo para organizar!")
		return nil
	}
	fmt.Printf("   Encontrados: %d arquivos\n\n", len(files))

	// === ETAPA 2: Classificar ===
	var succeeded, skipped, failed atomic.Int32
	bar := newProgressBar(len(files))
	p := producer.New(client, detect.New(),
		producer.WithWorkers(cfg.Workers),
		producer.WithPendingHook(func(n int) {
			if bar != nil {
				bar.ChangeMax(n)
			}
		}),
		producer.WithResultHook(func(r classifier.Result) {
			switch r.Kind {
			case classifier.Success:
				succeeded.Add(1)
			case classifier.Skipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
			if bar != nil {
				bar.Add(1)
			}
		}),
	)
	p.Setup(settings)

	fmt.Println("🤖 Classificando arquivos...")
	if err := p.PrepareFiles(ctx, files, cfg.MimeFilter); err != nil {
		return err
	}
	if bar != nil {
		bar.Finish()
		fmt.Println()
	}
	fmt.Printf("   ✅ Classificados: %d | ⏭️  Ignorados: %d | ❌ Falhas: %d\n\n",
		succeeded.Load(), skipped.Load(), failed.Load())

	prepared := p.Prepared()
	if len(prepared) == 0 {
		fmt.Println("Nenhum arquivo foi classificado, nada a organizar.")
		return nil
	}
	if showClassifications {
		fmt.Println(renderClassifications(prepared))
		fmt.Println()
	}

	// === ETAPA 3: Síntese ===
	fmt.Println("🗂️  Gerando plano de organização...")
	plan, err := p.Produce(ctx)
	if err != nil {
		return err
	}
	fmt.Println(plan.Render())
	fmt.Println()

	// === ETAPA 4: Aplicar ===
	if dest == "" {
		fmt.Println("Use --dest <pasta> para mover os arquivos conforme o plano.")
		return nil
	}
	if cfg.DryRun {
		fmt.Println("🔍 MODO DRY-RUN: nenhum arquivo será movido")
	}

	sources := make([]string, len(prepared))
	for i, f := range prepared {
		sources[i] = f.Path
	}
	report, err := organizer.Apply(ctx, plan.Moves(), dest, sources, cfg.DryRun)
	if err != nil {
		return err
	}
	for _, e := range report.Errors {
		slog.Warn("movimentação não aplicada", "error", e)
	}

	fmt.Printf("\n🎉 Organização concluída!\n")
	fmt.Printf("   ✅ Movidos: %d\n", report.Moved)
	fmt.Printf("   📋 Planejados: %d\n", report.Planned)
	fmt.Printf("   ❌ Falhas: %d\n", len(report.Errors))
	return nil
}

func newClient(ctx context.Context) (llm.Client, func(), error) {
	var client llm.Client
	closeFn := func() {}

	switch cfg.Provider {
	case config.ProviderGemini:
		gc, err := llm.NewGeminiClient(ctx, cfg.APIKey)
		if err != nil {
			return nil, nil, err
		}
		client, closeFn = gc, gc.Close
	default:
		client = llm.NewOpenAIClient(cfg.APIKey, cfg.BaseURL)
	}

	slog.Info("cliente de IA pronto", "provider", cfg.Provider, "model", cfg.Model, "rate_limit", cfg.RateLimit)
	return llm.NewThrottled(client, cfg.RateLimit), closeFn, nil
}

// newProgressBar devolve nil quando stderr não é um terminal.
func newProgressBar(total int) *progressbar.ProgressBar {
	fd := os.Stderr.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("   Classificação"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func renderClassifications(files []classifier.PreparedFile) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Arquivo", "Classificação"})
	for _, f := range files {
		tw.AppendRow(table.Row{f.Path, f.Classification})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 80, Align: text.AlignLeft},
	})
	return tw.Render()
}
