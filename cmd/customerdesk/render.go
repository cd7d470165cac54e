package main

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"

	"github.com/phenrril/customerdesk/internal/domain"
	"github.com/phenrril/customerdesk/internal/usecase"
)

func renderCustomers(w io.Writer, st usecase.State) {
	if st.Err != nil {
		fmt.Fprintf(w, "Error: %s\n", domain.Message(st.Err))
		return
	}
	if len(st.Items) == 0 {
		if st.Search != "" {
			fmt.Fprintf(w, "Sin resultados para %q\n", st.Search)
		} else {
			fmt.Fprintln(w, "No hay clientes")
		}
		return
	}

	table := uitable.New()
	table.MaxColWidth = 40
	table.Wrap = true
	table.RightAlign(0)
	table.AddRow("ID", "CUSTOMER ID", "COMPANY", "ADDRESS", "CONTACT", "USER")
	for _, c := range st.Items {
		table.AddRow(c.ID, c.CustomerID, c.CompanyName, c.Address, c.ContactNo, c.Username)
	}
	fmt.Fprintln(w, table)

	fmt.Fprintf(w, "%s clientes", humanize.Comma(int64(st.Total)))
	if st.Search != "" {
		fmt.Fprintf(w, " para %q", st.Search)
	}
	fmt.Fprintln(w)
}

func renderCustomer(w io.Writer, c domain.Customer) {
	table := uitable.New()
	table.AddRow("ID:", c.ID)
	table.AddRow("Customer ID:", c.CustomerID)
	table.AddRow("Company:", c.CompanyName)
	table.AddRow("Address:", c.Address)
	table.AddRow("Contact:", c.ContactNo)
	table.AddRow("User:", c.Username)
	fmt.Fprintln(w, table)
}
