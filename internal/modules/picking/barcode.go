package picking

import (
	"fmt"
	"regexp"
	"strconv"
)

var barcodePattern = regexp.MustCompile(`^PROD-(.+)-(\d+)$`)

// Checksum is the Luhn check digit over the decimal digits of id. Other
// characters, such as the hex letters and dashes of a uuid, are skipped.
// The rightmost digit is doubled because the check digit is appended after it.
func Checksum(id string) int {
	sum := 0
	double := true
	for i := len(id) - 1; i >= 0; i-- {
		c := id[i]
		if c < '0' || c > '9' {
			continue
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return (10 - sum%10) % 10
}

// Barcode renders the label printed for a product.
func Barcode(productID string) string {
	return fmt.Sprintf("PROD-%s-%d", productID, Checksum(productID))
}

// ParseBarcode splits a scanned label into the product id and its check digit.
func ParseBarcode(data string) (productID string, digit int, ok bool) {
	m := barcodePattern.FindStringSubmatch(data)
	if m == nil {
		return "", 0, false
	}
	d, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return m[1], d, true
}
