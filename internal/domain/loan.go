package domain

// Loan — доменная сущность выдачи книги читателю.
type Loan struct {
	ID            int64  `json:"id"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	Book          Book   `json:"book"`
	LoanDate      Date   `json:"loan_date"`
	Returned      bool   `json:"returned"`
}

// Active сообщает, что книга по этой выдаче ещё не возвращена.
func (l Loan) Active() bool { return !l.Returned }

// LoanInput — входные данные для создания и полного обновления выдачи.
type LoanInput struct {
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customer_email"`
	BookID        int64  `json:"book_id"`
	LoanDate      Date   `json:"loan_date"`
	Returned      bool   `json:"returned"`
}

// Поля, по которым разрешена сортировка списка выдач.
const (
	LoanSortID            = "id"
	LoanSortCustomer      = "customer"
	LoanSortCustomerEmail = "customerEmail"
	LoanSortLoanDate      = "loanDate"
	LoanSortReturned      = "returned"
	LoanSortBookID        = "bookId"
)

var LoanSortFields = []string{
	LoanSortID, LoanSortCustomer, LoanSortCustomerEmail,
	LoanSortLoanDate, LoanSortReturned, LoanSortBookID,
}
