package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itsmops/refdata-validator/internal/ingest"
	"github.com/itsmops/refdata-validator/internal/loader"
	"github.com/itsmops/refdata-validator/internal/registry"
	"github.com/itsmops/refdata-validator/internal/resolver"
	"github.com/itsmops/refdata-validator/internal/seeder"
	"github.com/itsmops/refdata-validator/internal/source"
	"github.com/itsmops/refdata-validator/internal/utils"
)

func main() {
	var (
		dataDir     string
		manifest    string
		sourceKind  string
		mongoURI    string
		mongoDB     string
		dbHost      string
		dbUser      string
		dbPassword  string
		dbName      string
		dbPort      string
		envFile     string
		logLevel    string
		planOnly    bool
		strict      bool
		jsonPath    string
		seedRows    int
		ingestMongo bool
	)

	rootCmd := &cobra.Command{
		Use:   "refdata-validator",
		Short: "Validate ITSM reference data before the dashboard pipelines consume it",
		Long: `ITSM Reference Data Validator

Resolves the dependency order of the ITSM datasets (lookups before facts
before live data), then validates each one: schema presence, required-column
null rates, primary key uniqueness, and foreign key integrity against the
already-validated datasets. Violations are collected into a single report
instead of failing at the first problem.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := utils.SetupLogging(logLevel)
			utils.LoadEnvironmentVariables(envFile, logger)

			// Build the registry: the data-dictionary manifest when given,
			// otherwise the built-in ITSM dictionary
			var reg *registry.Registry
			if manifest != "" {
				var err error
				reg, err = registry.LoadManifest(manifest, logger)
				if err != nil {
					logger.Errorf("Failed to load manifest: %v", err)
					os.Exit(1)
				}
			} else {
				reg = registry.DefaultITSMRegistry(logger)
			}

			ctx := context.Background()

			// Seed mode writes demo CSVs and exits
			if seedRows > 0 {
				s := seeder.NewSeeder(reg, seedRows, logger)
				if err := s.Seed(dataDir); err != nil {
					logger.Errorf("Failed to seed demo data: %v", err)
					os.Exit(1)
				}
				logger.Infof("Seeded demo data into %s", dataDir)
				return nil
			}

			if planOnly {
				plan, err := resolver.NewResolver(logger).Resolve(reg)
				if err != nil {
					logger.Errorf("Planning failed: %v", err)
					os.Exit(1)
				}
				utils.PrintLoadPlan(reg, plan)
				return nil
			}

			src, err := buildSource(ctx, sourceKind, dataDir, mongoURI, mongoDB,
				dbHost, dbUser, dbPassword, dbName, dbPort, logger)
			if err != nil {
				logger.Errorf("Failed to initialize %s source: %v", sourceKind, err)
				os.Exit(1)
			}
			defer src.Close()

			result, err := loader.NewLoader(reg, src, logger).Run(ctx)
			if err != nil {
				logger.Errorf("Validation run failed: %v", err)
				os.Exit(1)
			}

			utils.PrintReport(result.Report)
			if jsonPath != "" {
				if err := utils.WriteReportJSON(result.Report, jsonPath); err != nil {
					logger.Errorf("Failed to write JSON report: %v", err)
					os.Exit(1)
				}
			}

			if result.Report.HasViolations() && strict {
				logger.Errorf("Strict mode: %d violation(s) found, aborting downstream pipelines",
					result.Report.TotalViolations())
				os.Exit(1)
			}

			// Optionally seed MongoDB with the validated tables
			if ingestMongo {
				if result.Report.HasViolations() && !strict {
					logger.Warningf("Ingesting despite %d violation(s)", result.Report.TotalViolations())
				}
				ing, err := ingest.NewIngestor(ctx, mongoURI, mongoDB, logger)
				if err != nil {
					logger.Errorf("Failed to connect to MongoDB: %v", err)
					os.Exit(1)
				}
				defer ing.Close()
				if err := ing.IngestAll(ctx, result.Plan.Order, result.Tables, sourceKind); err != nil {
					logger.Errorf("Ingest failed: %v", err)
					os.Exit(1)
				}
			}

			return nil
		},
	}

	rootCmd.Flags().StringVarP(&dataDir, "data-dir", "d", "dummydata", "Directory holding the dataset CSV files")
	rootCmd.Flags().StringVarP(&manifest, "manifest", "m", "", "YAML data-dictionary manifest (default: built-in ITSM dictionary)")
	rootCmd.Flags().StringVarP(&sourceKind, "source", "s", "csv", "Dataset source: csv, mysql, or mongo")
	rootCmd.Flags().StringVar(&mongoURI, "mongo-uri", "mongodb://localhost:27017", "MongoDB connection URI")
	rootCmd.Flags().StringVar(&mongoDB, "mongo-db", "itsm_app", "MongoDB database name")
	rootCmd.Flags().StringVar(&dbHost, "db-host", "", "MySQL host (default: ITSM_DB_HOST)")
	rootCmd.Flags().StringVar(&dbUser, "db-user", "", "MySQL user (default: ITSM_DB_USER)")
	rootCmd.Flags().StringVar(&dbPassword, "db-password", "", "MySQL password (default: ITSM_DB_PASSWORD)")
	rootCmd.Flags().StringVar(&dbName, "db-name", "", "MySQL database (default: ITSM_DB_DATABASE)")
	rootCmd.Flags().StringVar(&dbPort, "db-port", "", "MySQL port (default: ITSM_DB_PORT or 3306)")
	rootCmd.Flags().StringVarP(&envFile, "env-file", "e", ".env", "Path to .env file")
	rootCmd.Flags().StringVarP(&logLevel, "log-level", "l", "", "Log level (debug, info, warn, error)")
	rootCmd.Flags().BoolVarP(&planOnly, "plan-only", "p", false, "Only resolve and print the load plan")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "Exit non-zero when any violation is found")
	rootCmd.Flags().StringVarP(&jsonPath, "json", "j", "", "Write the machine-readable report to this file (- for stdout)")
	rootCmd.Flags().IntVar(&seedRows, "seed", 0, "Generate demo CSV data into --data-dir (value: default rows per dataset)")
	rootCmd.Flags().BoolVar(&ingestMongo, "ingest", false, "Seed MongoDB collections with the validated tables")

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func buildSource(ctx context.Context, kind, dataDir, mongoURI, mongoDB,
	dbHost, dbUser, dbPassword, dbName, dbPort string, logger *logrus.Logger) (source.Source, error) {
	switch kind {
	case "csv":
		return source.NewCSVSource(dataDir, logger), nil
	case "mysql":
		src := source.NewMySQLSource(dbHost, dbUser, dbPassword, dbName, dbPort, logger)
		if err := src.Connect(); err != nil {
			return nil, err
		}
		return src, nil
	case "mongo":
		return source.NewMongoSource(ctx, mongoURI, mongoDB, logger)
	default:
		return nil, fmt.Errorf("unknown source %q (expected csv, mysql, or mongo)", kind)
	}
}
