package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vitoramaral10/local-organizer/internal/config"
)

func newAuthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "auth",
		Short: "Salva a API key do provedor de IA",
		Long:  "Pede a API key do provedor configurado e a salva em ~/.config/local-organizer/api_key.",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("🔐 Configurando API key para o provedor %q...\n", cfg.Provider)

			key, err := promptAPIKey(bufio.NewReader(os.Stdin))
			if err != nil {
				return err
			}

			if err := config.SaveAPIKey(key); err != nil {
				return fmt.Errorf("falha ao salvar API key: %w", err)
			}

			fmt.Printf("\n✅ API key salva em: %s\n", config.APIKeyPath())
			fmt.Println("   Agora você pode usar: local-organizer organize <pasta>")
			return nil
		},
	}
}

func promptAPIKey(reader *bufio.Reader) (string, error) {
	fmt.Print("  Cole sua API key aqui: ")
	key, _ := reader.ReadString('\n')
	key = strings.TrimSpace(key)
	if key == "" {
		return "", fmt.Errorf("API key não pode ser vazia")
	}
	return key, nil
}

// ensureAPIKey verifica se a API key está disponível.
// Se não estiver salva em disco nem configurada, pede ao usuário e salva.
func ensureAPIKey() error {
	// 1. Já configurada via flag/env/config yaml?
	if cfg.APIKey != "" {
		return nil
	}

	// 2. Tentar carregar do arquivo salvo
	if savedKey, err := config.LoadAPIKey(); err == nil {
		cfg.APIKey = savedKey
		return nil
	}

	// Endpoints locais (ex: Ollama) não exigem chave
	if cfg.Provider == config.ProviderOpenAI && cfg.BaseURL != "" && !strings.Contains(cfg.BaseURL, "api.openai.com") {
		return nil
	}

	// 3. Pedir ao usuário
	fmt.Println("🔑 Nenhuma API key encontrada.")
	key, err := promptAPIKey(bufio.NewReader(os.Stdin))
	if err != nil {
		return err
	}

	// 4. Salvar em disco
	if err := config.SaveAPIKey(key); err != nil {
		fmt.Printf("  ⚠️  não foi possível salvar a API key: %v\n", err)
	} else {
		fmt.Printf("  ✅ API key salva em: %s\n", config.APIKeyPath())
	}

	cfg.APIKey = key
	return nil
}
