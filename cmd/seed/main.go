package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ikkim/vibe-storefront/config"
	"github.com/ikkim/vibe-storefront/internal/db"
	"github.com/ikkim/vibe-storefront/pkg/logger"
	"github.com/ikkim/vibe-storefront/pkg/util"
)

func main() {
	xlsxPath := flag.String("xlsx", "", "import the product catalogue from an XLSX file instead of the demo catalogue")
	assumeYes := flag.Bool("yes", false, "do not ask for confirmation")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.Initialize(logger.Config{
		Level:       "info",
		Format:      "console",
		EnableColor: true,
	})

	products := db.DemoProducts()
	if *xlsxPath != "" {
		fmt.Printf("Reading XLSX file: %s\n", *xlsxPath)
		products, err = db.ReadProductsFromXLSX(*xlsxPath)
		if err != nil {
			log.Fatal("Failed to read XLSX:", err)
		}
	}

	fmt.Printf("Products to import: %d (plus demo shopper %s)\n", len(products), db.DemoUser.Email)
	if !*assumeYes && !confirm("Do you want to proceed with the import? (yes/no): ") {
		fmt.Println("Import cancelled.")
		return
	}

	database, err := db.Initialize(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close(database)

	if err := db.Migrate(database); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	passwords := util.NewPasswordHasher(cfg.Password.BcryptCost)
	if err := db.SeedWith(database, passwords, products); err != nil {
		log.Fatal("Failed to seed database:", err)
	}

	fmt.Println("Import completed successfully!")
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}
