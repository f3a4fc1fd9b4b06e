// Package report contains the marketplace reporting context: Zalando transaction
// files (daily shipment reports and monthly sales reports) and the DATEV
// bookings derived from OTTO order items and Zalando sales report lines.
package report
