// Command seed_demo fills the database with a year of varied demo receipts
// and expenses for exercising the dashboard. It DELETES existing receipts and
// expenses first; development use only.
package main

import (
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"marate/models"
	"marate/pkg/gormstore"
	"marate/pkg/ledger"
)

var customers = []string{
	"Entreprise Alpha SA",
	"Beta Solutions",
	"Gamma Tech",
	"Delta Services",
	"Epsilon Corp",
	"Zeta Industries",
	"Eta Consulting",
	"Theta Partners",
}

var oneTimeReasons = []string{
	"Strategy consultation",
	"Online training",
	"Website development",
	"Server maintenance",
	"Network configuration",
	"Security audit",
	"Data migration",
	"Technical support",
}

var expenseTypes = []string{
	"Office supplies",
	"Software subscription",
	"Web hosting",
	"Electricity",
	"Internet",
	"Digital marketing",
	"Professional training",
	"Bank fees",
	"Office rent",
	"Insurance",
}

func main() {
	dsn := os.Getenv("DB_DSN")
	if strings.TrimSpace(dsn) == "" {
		log.Fatal("DB_DSN not set in environment")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	store := gormstore.New(db)
	if err := store.AutoMigrate(); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	log.Println("clearing existing receipts and expenses")
	db.Where("1 = 1").Delete(&models.Receipt{})
	db.Where("1 = 1").Delete(&models.Expense{})

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	base := time.Now()
	receiptCount := 0
	expenseCount := 0
	counter := 0

	for monthOffset := 0; monthOffset < 12; monthOffset++ {
		for i := 0; i < 5+rng.Intn(11); i++ {
			daysBack := monthOffset*30 + rng.Intn(30)
			date := base.AddDate(0, 0, -daysBack)
			counter++

			paymentType := ledger.PaymentRecurringMonthly
			reason := ""
			if rng.Intn(2) == 0 {
				paymentType = ledger.PaymentOneTime
				reason = oneTimeReasons[rng.Intn(len(oneTimeReasons))]
			}
			cents := int64(5000+rng.Intn(195000)) * 10

			r := &models.Receipt{
				ReceiptNumber: fmt.Sprintf("REC-%d-%d", date.Unix(), counter),
				CustomerName:  customers[rng.Intn(len(customers))],
				PaymentType:   paymentType,
				PaymentReason: reason,
				PriceCents:    cents,
				AmountInWords: ledger.FormatCents(cents) + " in words",
				Date:          date,
			}
			if paymentType == ledger.PaymentRecurringMonthly {
				r.Description = "Recurring monthly payment"
			} else {
				r.Description = reason
			}
			if err := db.Create(r).Error; err != nil {
				log.Fatalf("seed receipt: %v", err)
			}
			receiptCount++
		}

		for i := 0; i < 4+rng.Intn(6); i++ {
			daysBack := monthOffset*30 + rng.Intn(30)
			e := &models.Expense{
				Description: expenseTypes[rng.Intn(len(expenseTypes))],
				AmountCents: int64(1000+rng.Intn(49000)) * 10,
				Date:        base.AddDate(0, 0, -daysBack),
			}
			if err := db.Create(e).Error; err != nil {
				log.Fatalf("seed expense: %v", err)
			}
			expenseCount++
		}
	}
	fmt.Printf("seeded %d receipts and %d expenses\n", receiptCount, expenseCount)
}
