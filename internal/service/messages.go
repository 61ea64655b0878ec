package service

import (
	"fmt"
	"strconv"
	"strings"

	"order-agent/internal/models"
)

// FallbackAnswer is the only failure text a customer ever sees
const FallbackAnswer = "Lo siento, en este momento no tengo esa información. ¿Te puedo ayudar con algo más sobre el producto?"

var paymentButtons = []models.Button{
	{ID: models.ButtonPayCash, Title: "Contra entrega"},
	{ID: models.ButtonPayTransfer, Title: "Transferencia"},
}

func welcomeMessage(storeName, customerName string) string {
	greeting := "¡Hola!"
	if name := strings.TrimSpace(customerName); name != "" {
		greeting = fmt.Sprintf("¡Hola, %s!", name)
	}
	return fmt.Sprintf("%s 👋 Bienvenido a %s. Cuéntame qué producto te interesa y con gusto te ayudo.", greeting, storeName)
}

func productNotIdentifiedMessage() string {
	return "No logré identificar el producto 🤔. Escríbeme el nombre, por ejemplo: \"¿Para qué sirve la crema de manos?\""
}

func productSwitchMessage(p *models.Product) string {
	return fmt.Sprintf("Perfecto, ahora hablemos de *%s*.", p.Name)
}

func imageCaption(p *models.Product) string {
	return fmt.Sprintf("%s - %s", p.Name, formatPrice(p.Price))
}

func askQuantityMessage(p *models.Product) string {
	return fmt.Sprintf("¡Excelente elección! ¿Cuántas unidades de *%s* deseas?", p.Name)
}

func quantityRepromptMessage() string {
	return "No entendí la cantidad 🙏. Escríbeme un número, por ejemplo: 2"
}

func askLocationMessage(p *models.Product, quantity int) string {
	return fmt.Sprintf("Anotado: %d x *%s*. Ahora envíame tu ubicación de entrega 📍 usando la opción \"Ubicación\" de WhatsApp.", quantity, p.Name)
}

func locationInstructionMessage() string {
	return "Para continuar necesito tu ubicación 📍. Toca el clip 📎, elige \"Ubicación\" y envía tu ubicación actual."
}

func askPaymentMessage() string {
	return "¡Gracias! ¿Cómo deseas pagar?"
}

func paymentRepromptMessage() string {
	return "Por favor elige un método de pago: *Contra entrega* o *Transferencia*."
}

func missingFieldReminder(state models.State) string {
	switch state {
	case models.StateAwaitQuantity:
		return "Antes de la ubicación necesito saber cuántas unidades deseas 🙂."
	case models.StateAwaitPayment:
		return "Ya tengo tu ubicación ✅. Solo falta que elijas el método de pago."
	}
	return "Primero cuéntame qué producto te interesa 🙂."
}

func confirmationMessage(o *models.Order) string {
	var b strings.Builder
	b.WriteString("✅ ¡Pedido confirmado!\n\n")
	fmt.Fprintf(&b, "Producto: %s\n", o.ProductName)
	fmt.Fprintf(&b, "Cantidad: %d\n", o.Quantity)
	fmt.Fprintf(&b, "Total: %s\n", formatPrice(o.TotalAmount))
	fmt.Fprintf(&b, "Pago: %s\n", o.PaymentMethod)
	if addr := locationLabel(o); addr != "" {
		fmt.Fprintf(&b, "Entrega: %s\n", addr)
	}
	fmt.Fprintf(&b, "\nReferencia: %s\nPronto te contactaremos para coordinar la entrega. ¡Gracias por tu compra!", shortReference(o.Reference))
	return b.String()
}

func operatorNotification(o *models.Order) string {
	var b strings.Builder
	b.WriteString("🛒 Nuevo pedido\n\n")
	customer := o.CustomerID
	if o.CustomerName != "" {
		customer = fmt.Sprintf("%s (%s)", o.CustomerName, o.CustomerID)
	}
	fmt.Fprintf(&b, "Cliente: %s\n", customer)
	fmt.Fprintf(&b, "Producto: %s\n", o.ProductName)
	fmt.Fprintf(&b, "Cantidad: %d\n", o.Quantity)
	fmt.Fprintf(&b, "Total: %s\n", formatPrice(o.TotalAmount))
	fmt.Fprintf(&b, "Pago: %s\n", o.PaymentMethod)
	if addr := locationLabel(o); addr != "" {
		fmt.Fprintf(&b, "Dirección: %s\n", addr)
	}
	if link := mapLink(o); link != "" {
		fmt.Fprintf(&b, "Mapa: %s\n", link)
	}
	fmt.Fprintf(&b, "Referencia: %s", shortReference(o.Reference))
	return b.String()
}

func locationLabel(o *models.Order) string {
	parts := make([]string, 0, 2)
	if o.LocationName != "" {
		parts = append(parts, o.LocationName)
	}
	if o.LocationAddress != "" {
		parts = append(parts, o.LocationAddress)
	}
	return strings.Join(parts, ", ")
}

func mapLink(o *models.Order) string {
	if !o.HasCoordinates() {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%s,%s",
		strconv.FormatFloat(o.Latitude, 'f', -1, 64),
		strconv.FormatFloat(o.Longitude, 'f', -1, 64))
}

func shortReference(ref string) string {
	if len(ref) > 8 {
		return strings.ToUpper(ref[:8])
	}
	return strings.ToUpper(ref)
}

// formatPrice renders whole pesos with dot thousands separators: $38.000
func formatPrice(amount int64) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	digits := strconv.FormatInt(amount, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return sign + "$" + b.String()
}
