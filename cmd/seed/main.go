package main

import (
	"os"
	"strings"

	"github.com/employer-pool/internal/config"
	"github.com/employer-pool/internal/constants"
	"github.com/employer-pool/internal/logger"
	"github.com/employer-pool/internal/models"
	"github.com/employer-pool/internal/repository"
	"github.com/employer-pool/internal/service"
)

const (
	demoBusinessEmail = "owner@demo-payroll.example"
	demoBusinessPass  = "Demo-Payroll-2026"
)

type demoWorker struct {
	name   string
	email  string
	salary string
	wallet string // 为空表示员工尚未绑定钱包
}

type demoContractor struct {
	name   string
	email  string
	role   string
	amount string
	wallet string
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	businessRepo := repository.NewBusinessRepository(models.DB)
	operatorRepo := repository.NewOperatorRepository(models.DB)
	schema := service.NewRecordSchema(nil)
	authService := service.NewAuthService(cfg, operatorRepo, businessRepo)
	workerService := service.NewWorkerService(repository.NewWorkerRepository(models.DB), schema)
	contractorService := service.NewContractorService(repository.NewContractorRepository(models.DB), schema)

	password := strings.TrimSpace(os.Getenv("EP_SEED_PASSWORD"))
	if password == "" {
		password = demoBusinessPass
	}

	existing, err := operatorRepo.GetByEmail(demoBusinessEmail)
	if err != nil {
		stdLog.Fatalf("Failed to load operator: %v", err)
	}
	if existing != nil {
		stdLog.Printf("Demo business already seeded (operator %s)", demoBusinessEmail)
		return
	}

	business := &models.Business{
		Name:          "Demo Payroll Co.",
		Email:         demoBusinessEmail,
		WalletAddress: "0x1000000000000000000000000000000000000001",
	}
	owner := &models.Operator{
		Email:       demoBusinessEmail,
		DisplayName: "Demo Owner",
		Role:        constants.OperatorRoleOwner,
	}
	if err := authService.RegisterBusiness(business, owner, password); err != nil {
		stdLog.Fatalf("Failed to create business: %v", err)
	}
	stdLog.Printf("Created business %d with owner %s", business.ID, owner.Email)

	for _, op := range []struct{ email, name, role string }{
		{"manager@demo-payroll.example", "Payroll Manager", constants.OperatorRolePayrollManager},
		{"viewer@demo-payroll.example", "Auditor", constants.OperatorRoleViewer},
	} {
		hash, err := authService.HashPassword(password)
		if err != nil {
			stdLog.Fatalf("Failed to hash password: %v", err)
		}
		operator := &models.Operator{
			BusinessID:   business.ID,
			Email:        op.email,
			DisplayName:  op.name,
			Role:         op.role,
			PasswordHash: hash,
		}
		if err := operatorRepo.Create(operator); err != nil {
			stdLog.Printf("Failed to create operator %s: %v", op.email, err)
			continue
		}
		stdLog.Printf("Created operator %s (%s)", op.email, op.role)
	}

	workers := []demoWorker{
		{name: "Ada Lovelace", email: "ada@example.com", salary: "3200.00", wallet: "0x2000000000000000000000000000000000000001"},
		{name: "Alan Turing", email: "alan@example.com", salary: "2950.50", wallet: "0x2000000000000000000000000000000000000002"},
		{name: "Grace Hopper", email: "grace@example.com", salary: "3100.00"},
	}
	for _, item := range workers {
		worker, err := workerService.Add(business.ID, service.WorkerAddInput{Name: item.name, Email: item.email, Salary: item.salary})
		if err != nil {
			stdLog.Printf("Failed to add worker %s: %v", item.name, err)
			continue
		}
		if item.wallet == "" {
			stdLog.Printf("Invited worker %s (connect code %s)", worker.Name, worker.ConnectCode)
			continue
		}
		if _, err := workerService.ConnectWallet(worker.ConnectCode, item.wallet); err != nil {
			stdLog.Printf("Failed to connect wallet for %s: %v", item.name, err)
			continue
		}
		stdLog.Printf("Created active worker %s", worker.Name)
	}

	contractors := []demoContractor{
		{name: "Katherine Johnson", email: "katherine@example.com", role: "Orbital analyst", amount: "500.00", wallet: "0x3000000000000000000000000000000000000001"},
		{name: "Margaret Hamilton", email: "margaret@example.com", role: "Flight software", amount: "1250.75"},
	}
	for _, item := range contractors {
		contractor, err := contractorService.Invite(business.ID, service.ContractorInviteInput{
			Name:          item.name,
			Email:         item.email,
			Role:          item.role,
			PaymentAmount: item.amount,
		})
		if err != nil {
			stdLog.Printf("Failed to invite contractor %s: %v", item.name, err)
			continue
		}
		if item.wallet == "" {
			stdLog.Printf("Invited contractor %s", contractor.Name)
			continue
		}
		if _, err := contractorService.Activate(business.ID, contractor.ID, item.wallet); err != nil {
			stdLog.Printf("Failed to activate contractor %s: %v", item.name, err)
			continue
		}
		stdLog.Printf("Created active contractor %s", contractor.Name)
	}

	stdLog.Printf("Seed completed. Login with %s", demoBusinessEmail)
}
