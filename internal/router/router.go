package router

import (
	"net/http"

	"github.com/werlang/busicode-server/internal/handlers"
	"github.com/werlang/busicode-server/internal/middleware"
)

// New returns an http.Handler serving the API under /api. Financial POSTs go
// through the amount gate, which rejects non-positive money fields before any
// business code runs.
func New(
	classHandler *handlers.ClassHandler,
	studentHandler *handlers.StudentHandler,
	companyHandler *handlers.CompanyHandler,
	productHandler *handlers.ProductHandler,
	backupHandler *handlers.BackupHandler,
) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	mux.HandleFunc("POST /api/classes", classHandler.Create)
	mux.HandleFunc("GET /api/classes", classHandler.List)
	mux.HandleFunc("GET /api/classes/{id}", classHandler.Get)
	mux.HandleFunc("DELETE /api/classes/{id}", classHandler.Delete)

	mux.HandleFunc("POST /api/classes/{id}/students", studentHandler.Create)
	mux.HandleFunc("POST /api/classes/{id}/students/import", studentHandler.Import)
	mux.HandleFunc("GET /api/classes/{id}/students", studentHandler.ListByClass)
	mux.HandleFunc("GET /api/students/{id}", studentHandler.Get)
	mux.HandleFunc("DELETE /api/students/{id}", studentHandler.Delete)
	mux.Handle("POST /api/students/{id}/deposit", middleware.AmountCheck(http.HandlerFunc(studentHandler.Deposit)))
	mux.Handle("POST /api/students/{id}/withdraw", middleware.AmountCheck(http.HandlerFunc(studentHandler.Withdraw)))

	mux.HandleFunc("POST /api/companies", companyHandler.Create)
	mux.HandleFunc("GET /api/companies", companyHandler.List)
	mux.HandleFunc("GET /api/classes/{id}/companies", companyHandler.ListByClass)
	mux.HandleFunc("GET /api/companies/{id}", companyHandler.Get)
	mux.HandleFunc("DELETE /api/companies/{id}", companyHandler.Delete)
	mux.HandleFunc("PUT /api/companies/{id}/students", companyHandler.UpdateStudents)
	mux.Handle("POST /api/companies/{id}/expenses", middleware.AmountCheck(http.HandlerFunc(companyHandler.AddExpense)))
	mux.Handle("POST /api/companies/{id}/revenues", middleware.AmountCheck(http.HandlerFunc(companyHandler.AddRevenue)))
	mux.HandleFunc("GET /api/companies/{id}/history", companyHandler.History)
	mux.Handle("POST /api/companies/{id}/distribute", middleware.AmountCheck(http.HandlerFunc(companyHandler.Distribute)))

	mux.Handle("POST /api/companies/{id}/products", middleware.AmountCheck(http.HandlerFunc(productHandler.Launch)))
	mux.HandleFunc("GET /api/companies/{id}/products", productHandler.ListByCompany)
	mux.HandleFunc("GET /api/products", productHandler.List)
	mux.HandleFunc("GET /api/products/{id}", productHandler.Get)
	mux.Handle("POST /api/products/{id}/sales", middleware.AmountCheck(http.HandlerFunc(productHandler.AddSales)))
	mux.Handle("PATCH /api/products/{id}/price", middleware.AmountCheck(http.HandlerFunc(productHandler.UpdatePrice)))
	mux.HandleFunc("DELETE /api/products/{id}", productHandler.Delete)

	mux.HandleFunc("GET /api/export", backupHandler.Export)
	mux.HandleFunc("POST /api/restore", backupHandler.Restore)

	return mux
}
