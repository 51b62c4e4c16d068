package main

// orderPageHTML is the SuperDad's T-Shirts order page: a dark-mode form
// that posts back to / and shows the priced result or the validation
// failure. Rendered with html/template against orderPage.
const orderPageHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>SuperDad's T-Shirts</title>
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <style>
    body { font-family: sans-serif; background-color: #121212; color: #fff; max-width: 600px; margin: 0 auto; padding: 20px; }
    h1 { background-image: linear-gradient(45deg, #FDB913, #FFB347); -webkit-background-clip: text; background-clip: text; color: transparent; }
    .card { background: #1e1e1e; border-radius: 10px; padding: 20px; margin-bottom: 20px; }
    label { display: block; margin-top: 12px; font-weight: 600; }
    input, select, textarea { width: 100%; border-radius: 10px; border: none; padding: 8px; margin-top: 4px; background: #2a2a2a; color: #fff; }
    button { margin-top: 16px; width: 100%; padding: 10px; border: none; border-radius: 10px; font-weight: 600; background-image: linear-gradient(45deg, #FDB913, #FFB347); cursor: pointer; }
    .ok { background: #1b3d1b; border-radius: 10px; padding: 15px; }
    .err { background: #3d1b1b; border-radius: 10px; padding: 15px; }
    a { color: #FDB913; }
  </style>
</head>
<body>
  <h1>SuperDad's T-Shirts</h1>
  <p>Design your perfect custom t-shirt. The order number is generated automatically.</p>
{{if .Result}}
  {{if .ErrMsg}}
  <div class="err">Order {{.Order.OrderID}} encountered an error: <strong>{{.ErrMsg}}</strong></div>
  {{else}}
  <div class="ok">Order {{.Order.OrderID}} for {{.Order.Customer}} is priced at <strong>${{printf "%.2f" .Result.EstimatedCost}}</strong>.</div>
  {{end}}
  <p><a href="/">Submit another order</a></p>
{{else}}
  <div class="card">
    <form method="POST" action="/">
      <label for="order_id">Order ID</label>
      <input type="number" name="order_id" id="order_id" value="{{.NextID}}" readonly>
      <label for="customer_name">Customer Name</label>
      <input type="text" name="customer_name" id="customer_name" required>
      <label for="size">Size</label>
      <select name="size" id="size" required>
        <option value="">Choose...</option>
        <option value="S">S</option>
        <option value="M">M</option>
        <option value="L">L</option>
        <option value="XL">XL</option>
      </select>
      <label for="color">Color</label>
      <select name="color" id="color" required>
        <option value="">Choose...</option>
        <option value="red">Red</option>
        <option value="blue">Blue</option>
        <option value="green">Green</option>
        <option value="black">Black</option>
        <option value="white">White</option>
      </select>
      <label for="design">Design</label>
      <select name="design" id="design" required>
        <option value="">Choose...</option>
        <option value="Abstract">Abstract</option>
        <option value="Vintage">Vintage</option>
        <option value="Modern">Modern</option>
      </select>
      <label for="text">Custom Text (optional)</label>
      <textarea name="text" id="text" rows="2"></textarea>
      <button type="submit">Submit Order</button>
    </form>
  </div>
{{end}}
  <footer><p>&copy; 2026 SuperDad's T-Shirts</p></footer>
</body>
</html>
`
