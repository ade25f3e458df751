package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/helai/internal/profile"
	"github.com/hrygo/helai/plugin/ai"
	"github.com/hrygo/helai/server"
	"github.com/hrygo/helai/server/service/emotion"
	"github.com/hrygo/helai/server/service/respond"
	"github.com/hrygo/helai/server/service/therapist"
	"github.com/hrygo/helai/store"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "helai",
	Short: "An AI wellness companion with emotion analysis and stress tracking",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile, err := loadProfile()
		if err != nil {
			fmt.Printf("failed to load profile: %v\n", err)
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		s, err := server.NewServer(ctx, instanceProfile)
		if err != nil {
			cancel()
			fmt.Printf("failed to create server: %v\n", err)
			return
		}

		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		go func() {
			sig := <-c
			slog.Info("received signal, shutting down", slog.String("signal", sig.String()))
			s.Shutdown(ctx)
			cancel()
		}()

		if err := s.Start(ctx); err != nil {
			slog.Error("failed to start server", slog.String("error", err.Error()))
			cancel()
		}

		<-ctx.Done()
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation session in the terminal",
	Run: func(_ *cobra.Command, _ []string) {
		instanceProfile, err := loadProfile()
		if err != nil {
			fmt.Printf("failed to load profile: %v\n", err)
			return
		}
		runChatSession(instanceProfile)
	},
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		User:    viper.GetString("user"),
		Version: version,
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

func newTherapistService(instanceProfile *profile.Profile) *therapist.Service {
	st := store.New(instanceProfile.Data, instanceProfile.User)

	var llmService ai.LLMService
	if instanceProfile.IsAIEnabled() {
		svc, err := ai.NewLLMService(ai.NewConfigFromProfile(instanceProfile))
		if err != nil {
			fmt.Printf("LLM unavailable, continuing with built-in analysis: %v\n", err)
		} else {
			llmService = svc
		}
	}

	return therapist.NewService(
		st,
		emotion.NewClassifier(llmService, instanceProfile.AIModel),
		respond.NewResponder(llmService, instanceProfile.AIModel),
		instanceProfile.User,
	)
}

func runChatSession(instanceProfile *profile.Profile) {
	svc := newTherapistService(instanceProfile)

	fmt.Println(strings.Repeat("=", 75))
	fmt.Println(" HELAI - AI WELLNESS COMPANION")
	fmt.Println("   Emotional Intelligence & Therapeutic Support")
	fmt.Println(strings.Repeat("=", 75))
	fmt.Println("COMMANDS:")
	fmt.Println("   -  'quit' - End session with summary")
	fmt.Println("   -  'crisis' - Access crisis resources")
	fmt.Println("   -  'stress' - View stress analysis")
	fmt.Println("   -  'history' - Review emotional journey")
	fmt.Println("   -  'help' - Show all commands")
	fmt.Println(strings.Repeat("=", 75))

	if previous := svc.Store().Len(); previous > 0 {
		fmt.Printf("Welcome back! I have %d previous conversations.\n", previous)
		fmt.Printf("Recent emotional trend: %s\n", svc.RecentEmotionalTrend())
	} else {
		fmt.Println("Welcome! I'm Dr. HelAI. This is our first session together.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n You: ")
		if !scanner.Scan() {
			fmt.Println("\nSession interrupted. Remember, you're not alone. Take care!")
			return
		}
		input := strings.TrimSpace(scanner.Text())

		switch strings.ToLower(input) {
		case "quit", "exit", "bye":
			printSessionSummary(svc)
			return
		case "crisis":
			printCrisisResources()
			continue
		case "stress":
			printStressAnalysis(svc)
			continue
		case "history":
			printEmotionalHistory(svc)
			continue
		case "help":
			printHelp()
			continue
		case "":
			fmt.Println("I'm here when you're ready to share. Take your time.")
			continue
		}

		result := svc.ProcessTurn(context.Background(), input)
		printTurn(result)
	}
}

// title uppercases the first letter of an emotion label for display.
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func stressBar(level int) string {
	if level < 0 {
		level = 0
	}
	if level > 10 {
		level = 10
	}
	return strings.Repeat("█", level) + strings.Repeat("░", 10-level)
}

func printTurn(result *therapist.TurnResult) {
	classification := result.Classification
	level := classification.StressLevel

	var status string
	switch {
	case level >= 9:
		status = "CRISIS - IMMEDIATE SUPPORT NEEDED"
	case level >= 7:
		status = "HIGH STRESS - ACTIVE INTERVENTION"
	case level >= 5:
		status = "MODERATE STRESS - COPING SUPPORT"
	default:
		status = "MANAGEABLE STRESS LEVELS"
	}

	fmt.Println("\n ANALYSIS:")
	fmt.Printf("   Primary Emotion: %s\n", title(classification.PrimaryEmotion))
	fmt.Printf("   Emotional Intensity: %.1f/1.0\n", classification.EmotionIntensity)
	fmt.Printf("   Stress Level: %d/10 [%s]\n", level, stressBar(level))
	fmt.Printf("   Status: %s\n", status)
	fmt.Printf("   Risk Assessment: %s\n", strings.ToUpper(classification.RiskAssessment))

	if len(classification.PsychologicalMarkers) > 0 && classification.PsychologicalMarkers[0] != "stable" {
		fmt.Printf("   Psychological Markers: %s\n", strings.Join(truncate(classification.PsychologicalMarkers, 3), ", "))
	}
	if len(classification.StressTriggers) > 0 {
		fmt.Printf("   Stress Triggers: %s\n", strings.Join(truncate(classification.StressTriggers, 3), ", "))
	}
	fmt.Printf("   AI Model: %s\n", classification.AIModel)
	fmt.Printf("   Therapeutic Approach: %s\n", result.Response.TherapeuticApproach)

	fmt.Println("\n Dr. HelAI")
	fmt.Printf("   %s\n", result.Response.Response)

	if level >= 7 {
		fmt.Println("\n IMMEDIATE STRESS RELIEF:")
		fmt.Printf("   %s\n", result.Response.CopingSuggestion)
	}

	if result.Response.CrisisResources != nil {
		fmt.Println("\nCRISIS SUPPORT RESOURCES:")
		for _, resource := range result.Response.CrisisResources.ImmediateHelp {
			fmt.Printf("   %s\n", resource)
		}
		fmt.Printf("   %s\n", result.Response.CrisisResources.SafetyMessage)
	}
}

func truncate(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func printCrisisResources() {
	resources := respond.NewCrisisResources()
	fmt.Println("\nCRISIS SUPPORT RESOURCES:")
	fmt.Println("   IMMEDIATE HELP (24/7):")
	for _, resource := range resources.ImmediateHelp {
		fmt.Printf("      -  %s\n", resource)
	}
	fmt.Printf("   %s\n", resources.SafetyMessage)
}

func printStressAnalysis(svc *therapist.Service) {
	st := svc.Store()
	if st.Len() == 0 {
		fmt.Println("\n No stress data available yet.")
		return
	}

	recent := st.Recent(10)
	current := recent[len(recent)-1].StressLevel
	sum := 0
	for _, record := range recent {
		sum += record.StressLevel
	}
	avg := float64(sum) / float64(len(recent))

	fmt.Println("\n STRESS ANALYSIS:")
	fmt.Printf("   Current Stress: %d/10\n", current)
	fmt.Printf("   Session Average: %.1f/10\n", avg)
	fmt.Printf("   Total Sessions: %d\n", st.Len())

	fmt.Println("\n Recent Stress Pattern:")
	last := st.Recent(5)
	for i, record := range last {
		session := st.Len() - len(last) + i + 1
		fmt.Printf("   Session %d: [%s] %d/10\n", session, stressBar(record.StressLevel), record.StressLevel)
	}

	switch {
	case avg >= 8:
		fmt.Println("\n RECOMMENDATION: High stress levels detected.")
		fmt.Println("   Consider professional counseling or medical consultation.")
	case avg >= 6:
		fmt.Println("\n SUGGESTION: Implement stress management practices.")
		fmt.Println("   Try daily meditation, exercise, or relaxation techniques.")
	default:
		fmt.Println("\n GOOD NEWS: Stress levels are well-managed!")
	}
}

func printEmotionalHistory(svc *therapist.Service) {
	st := svc.Store()
	if st.Len() == 0 {
		fmt.Println("\n No conversation history yet.")
		return
	}

	fmt.Printf("\n EMOTIONAL JOURNEY (%d sessions):\n", st.Len())
	fmt.Println(strings.Repeat("-", 50))
	for _, record := range st.Recent(10) {
		fmt.Printf("%s | %-8s | Stress: %d/10\n", record.Timestamp, title(record.PrimaryEmotion), record.StressLevel)
		if record.Context != "" {
			context := record.Context
			if len(context) > 60 {
				context = context[:60] + "..."
			}
			fmt.Printf("   You: %q\n", context)
		}
		fmt.Println()
	}
}

func printHelp() {
	fmt.Println("\n HELAI HELP:")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Println(" COMMANDS:")
	fmt.Println("   -  'crisis' - Crisis support resources")
	fmt.Println("   -  'stress' - Stress analysis and trends")
	fmt.Println("   -  'history' - Your emotional journey")
	fmt.Println("   -  'help' - This help message")
	fmt.Println("   -  'quit' - End session")
	fmt.Println("\n TIPS:")
	fmt.Println("   -  Be open about your feelings for better analysis")
	fmt.Println("   -  All conversations are private and stored locally")
}

func printSessionSummary(svc *therapist.Service) {
	stats := svc.Stats()

	fmt.Println("\n Dr. HelAI - Session Summary:")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("Thank you for our session today.")

	if stats.Exchanges > 0 {
		fmt.Printf("We had %d meaningful exchanges.\n", stats.Exchanges)
		fmt.Printf("Average stress level: %.1f/10\n", stats.AvgStressLevel)
		if stats.CrisisInterventions > 0 {
			fmt.Printf("Crisis interventions: %d\n", stats.CrisisInterventions)
			fmt.Println("Please remember the support resources provided.")
		}

		current := 5
		if recent := svc.Store().Recent(1); len(recent) > 0 {
			current = recent[0].StressLevel
		}
		if current >= 8 {
			fmt.Printf("\n Your stress level is high (%d/10). Please prioritize self-care.\n", current)
			fmt.Println("Consider reaching out to mental health professionals.")
		} else {
			fmt.Printf("\n Your stress level is manageable (%d/10). Keep up the good work.\n", current)
		}
	}

	fmt.Printf("\nI now have %d sessions to better support you.\n", svc.Store().Len())
	fmt.Println("\n Remember: Your mental health matters. Take care of yourself!")
}

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8230)
	viper.SetDefault("data", "")
	viper.SetDefault("user", "helai_user")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8230, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("user", "helai_user", "identifier the conversation store is keyed on")

	for _, flag := range []string{"mode", "addr", "port", "data", "user"} {
		if err := viper.BindPFlag(flag, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("helai")
	viper.AutomaticEnv()

	rootCmd.AddCommand(chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
