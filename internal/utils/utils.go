package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/itsmops/refdata-validator/internal/registry"
	"github.com/itsmops/refdata-validator/pkg/models"
)

// SetupLogging configures the logging system
func SetupLogging(logLevel string) *logrus.Logger {
	logger := logrus.New()

	levelStr := logLevel
	if levelStr == "" {
		levelStr = os.Getenv("ITSM_LOG_LEVEL")
		if levelStr == "" {
			levelStr = "info"
		}
	}

	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stdout)

	return logger
}

// LoadEnvironmentVariables loads environment variables from a .env file
func LoadEnvironmentVariables(envFile string, logger *logrus.Logger) {
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		sampleEnvFile := envFile + ".sample"
		if _, err := os.Stat(sampleEnvFile); err == nil {
			logger.Infof("No %s file found, but %s exists. Consider copying %s to %s and updating it.",
				envFile, sampleEnvFile, sampleEnvFile, envFile)
		}
	}

	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			logger.Warningf("Error loading %s file: %v", envFile, err)
		} else {
			logger.Infof("Loaded environment variables from %s", envFile)
		}
	} else {
		logger.Debugf("No %s file found, using existing environment variables", envFile)
	}
}

// GetEnvInt gets an integer value from an environment variable
func GetEnvInt(varName string, defaultValue int) int {
	value := os.Getenv(varName)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// PrintLoadPlan prints the resolved load order with tiers and dependencies
func PrintLoadPlan(reg *registry.Registry, plan *models.LoadPlan) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("LOAD PLAN")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("\nDatasets: %d   Stages: %d\n\n", len(plan.Order), len(plan.Stages))

	position := make(map[string]int, len(plan.Order))
	for i, name := range plan.Order {
		position[name] = i + 1
	}

	for stageIdx, stage := range plan.Stages {
		fmt.Printf("Stage %d:\n", stageIdx+1)
		for _, name := range stage {
			ds, err := reg.Lookup(name)
			if err != nil {
				continue
			}
			deps := make([]string, 0, len(ds.ForeignKeys))
			for _, fk := range ds.ForeignKeys {
				if fk.ReferencedDataset != name {
					deps = append(deps, fk.ReferencedDataset)
				}
			}
			line := fmt.Sprintf("  %3d. %s (%s)", position[name], name, ds.Tier)
			if len(deps) > 0 {
				line += " <- " + strings.Join(deps, ", ")
			}
			fmt.Println(line)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
}

// PrintReport prints a human-readable validation report
func PrintReport(report *models.ValidationReport) {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("VALIDATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run: %s\n", report.RunID)
	fmt.Printf("Datasets validated: %d\n", len(report.Order))
	fmt.Printf("Total violations: %d\n", report.TotalViolations())

	if !report.HasViolations() {
		fmt.Println("\n✅ All datasets passed quality and join integrity checks")
		fmt.Println(strings.Repeat("=", 80))
		return
	}

	for _, name := range report.Order {
		violations := report.Violations[name]
		if len(violations) == 0 {
			continue
		}
		fmt.Printf("\n❌ %s: %d violation(s)\n", name, len(violations))
		for _, v := range violations {
			fmt.Printf("  - [%s] %s\n", v.Kind, v.Message)
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 80))
}

// WriteReportJSON writes the machine-readable report to a file, or stdout
// when path is "-"
func WriteReportJSON(report *models.ValidationReport, path string) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
