package cmd

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nestsim/nestsim/sim/results"
)

var (
	// CLI flags for the analyze subcommand
	dataDir          string // Base directory containing simulation results
	simulationName   string // Run name to analyze
	henID            int    // When set, analyze companions of this hen only
	minCoOccurrences int    // Edge threshold for the social network
	topPairs         int    // Number of top pairs to print
)

// analyzeCmd generates the offline co-occurrence report: which hens
// frequently visit nests together.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze hen co-occurrence patterns from simulation results",
	Run: func(cmd *cobra.Command, args []string) {
		path := filepath.Join(dataDir, simulationName, results.CoOccurrenceFile)
		co, err := results.LoadCoOccurrences(path)
		if err != nil {
			logrus.Fatalf("Could not load co-occurrences: %v", err)
		}

		if cmd.Flags().Changed("hen-id") {
			printCompanions(co, henID)
			return
		}
		printReport(co)
	},
}

func printCompanions(co map[string]int, hen int) {
	companions, err := results.Companions(co, hen, 15)
	if err != nil {
		logrus.Fatalf("Could not rank companions: %v", err)
	}

	fmt.Printf("\nCompanions of Hen %d (from %s):\n", hen, simulationName)
	fmt.Println(strings.Repeat("-", 60))
	if len(companions) == 0 {
		fmt.Printf("Hen %d has no recorded co-occurrences\n", hen)
		return
	}
	for rank, c := range companions {
		fmt.Printf("%2d. Hen %4d: %4d co-occurrences\n", rank+1, c.Hen, c.Count)
	}
}

func printReport(co map[string]int) {
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("CO-OCCURRENCE ANALYSIS: %s\n", simulationName)
	fmt.Println(strings.Repeat("=", 80))

	stats := results.Summarize(co)
	fmt.Printf("\nTotal unique pairs tracked: %d\n", stats.Pairs)
	if stats.Pairs > 0 {
		fmt.Printf("Average co-occurrences per pair: %.2f\n", stats.Mean)
		fmt.Printf("Maximum co-occurrences: %d\n", stats.Max)
		fmt.Printf("Minimum co-occurrences: %d\n", stats.Min)
	}

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Printf("TOP %d PAIRS THAT MOST FREQUENTLY VISIT NESTS TOGETHER\n", topPairs)
	fmt.Println(strings.Repeat("-", 80))
	pairs, err := results.TopPairs(co, topPairs)
	if err != nil {
		logrus.Fatalf("Could not rank pairs: %v", err)
	}
	for rank, p := range pairs {
		fmt.Printf("%2d. Hen %4d & Hen %4d: %4d co-occurrences\n", rank+1, p.HenA, p.HenB, p.Count)
	}

	fmt.Println("\n" + strings.Repeat("-", 80))
	fmt.Printf("SOCIAL NETWORK: Hens with frequent connections (min %d co-occurrences)\n", minCoOccurrences)
	fmt.Println(strings.Repeat("-", 80))
	network, err := results.Network(co, minCoOccurrences)
	if err != nil {
		logrus.Fatalf("Could not build network: %v", err)
	}
	if len(network) == 0 {
		fmt.Printf("No strong social connections found (all pairs have <%d co-occurrences)\n", minCoOccurrences)
		return
	}

	type connected struct {
		hen        int
		companions []int
	}
	ranked := make([]connected, 0, len(network))
	for hen, companions := range network {
		ranked = append(ranked, connected{hen: hen, companions: companions})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if len(ranked[i].companions) != len(ranked[j].companions) {
			return len(ranked[i].companions) > len(ranked[j].companions)
		}
		return ranked[i].hen < ranked[j].hen
	})

	fmt.Printf("\nTotal hens with strong connections: %d\n", len(network))
	fmt.Println("\nTop 10 most socially connected hens:")
	for rank, c := range ranked {
		if rank == 10 {
			break
		}
		fmt.Printf("%2d. Hen %4d: connected to %d other hens\n", rank+1, c.hen, len(c.companions))
		shown := c.companions
		extra := 0
		if len(shown) > 5 {
			extra = len(shown) - 5
			shown = shown[:5]
		}
		parts := make([]string, len(shown))
		for i, companion := range shown {
			parts[i] = fmt.Sprintf("%d", companion)
		}
		line := strings.Join(parts, ", ")
		if extra > 0 {
			line += fmt.Sprintf(", ... (+%d more)", extra)
		}
		fmt.Printf("    Companions: %s\n", line)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
}

func init() {
	analyzeCmd.Flags().StringVar(&dataDir, "data-dir", "data", "Base directory containing simulation results")
	analyzeCmd.Flags().StringVar(&simulationName, "simulation", "sim", "Simulation name to analyze")
	analyzeCmd.Flags().IntVar(&henID, "hen-id", 0, "Analyze companions of a specific hen")
	analyzeCmd.Flags().IntVar(&minCoOccurrences, "min-co-occurrences", 3, "Minimum co-occurrences to consider a connection")
	analyzeCmd.Flags().IntVar(&topPairs, "top", 20, "Number of top pairs to print")

	rootCmd.AddCommand(analyzeCmd)
}
