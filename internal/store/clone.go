package store

import "rozliczenia/internal/core"

// Deep copies keep callers from mutating state behind the store's back.

func cloneSnapshot(snap core.Snapshot) core.Snapshot {
	out := core.Snapshot{}
	if snap.Clients != nil {
		out.Clients = make([]core.Client, len(snap.Clients))
		for i, c := range snap.Clients {
			out.Clients[i] = cloneClient(c)
		}
	}
	if snap.Orders != nil {
		out.Orders = make([]core.Order, len(snap.Orders))
		for i, o := range snap.Orders {
			out.Orders[i] = cloneOrder(o)
		}
	}
	if snap.Settlements != nil {
		out.Settlements = make([]core.Settlement, len(snap.Settlements))
		for i, s := range snap.Settlements {
			out.Settlements[i] = cloneSettlement(s)
		}
	}
	if snap.MonthlyDocuments != nil {
		out.MonthlyDocuments = make([]core.MonthlyDocument, len(snap.MonthlyDocuments))
		copy(out.MonthlyDocuments, snap.MonthlyDocuments)
	}
	return out
}

func cloneClient(c core.Client) core.Client {
	if c.Emails != nil {
		emails := make([]string, len(c.Emails))
		copy(emails, c.Emails)
		c.Emails = emails
	}
	return c
}

func cloneOrder(o core.Order) core.Order {
	if o.Items != nil {
		items := make([]core.OrderItem, len(o.Items))
		copy(items, o.Items)
		o.Items = items
	}
	if o.Attachments != nil {
		atts := make([]core.Attachment, len(o.Attachments))
		copy(atts, o.Attachments)
		o.Attachments = atts
	}
	return o
}

func cloneSettlement(s core.Settlement) core.Settlement {
	if s.Items != nil {
		items := make([]core.SettlementItem, len(s.Items))
		copy(items, s.Items)
		s.Items = items
	}
	return s
}
