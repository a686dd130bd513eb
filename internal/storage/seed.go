package storage

import "medmaster/internal"

// Starter catalogue for a fresh install, matching what the prescription
// module expects to find.
var defaultMedicines = []internal.MedicineRecord{
	{MedicineName: "Paracetamol", CompanyName: "Cipla", Category: "Analgesic", DosageMg: "500mg", DosageForm: "Tablet"},
	{MedicineName: "Paracetamol", CompanyName: "Cipla", Category: "Analgesic", DosageMg: "125mg/5ml", DosageForm: "Syrup", IsPediatric: 1},
	{MedicineName: "Amoxicillin", CompanyName: "GSK", Category: "Antibiotic", DosageMg: "250mg", DosageForm: "Capsule"},
	{MedicineName: "Amoxicillin", CompanyName: "GSK", Category: "Antibiotic", DosageMg: "125mg/5ml", DosageForm: "Suspension", IsPediatric: 1},
	{MedicineName: "Azithromycin", CompanyName: "Pfizer", Category: "Antibiotic", DosageMg: "500mg", DosageForm: "Tablet"},
	{MedicineName: "Ibuprofen", CompanyName: "Abbott", Category: "Analgesic", DosageMg: "400mg", DosageForm: "Tablet"},
	{MedicineName: "Cetirizine", CompanyName: "Dr. Reddy's", Category: "Antihistamine", DosageMg: "10mg", DosageForm: "Tablet"},
	{MedicineName: "Omeprazole", CompanyName: "Sun Pharma", Category: "Antacid", DosageMg: "20mg", DosageForm: "Capsule"},
	{MedicineName: "Metformin", CompanyName: "USV", Category: "Antidiabetic", DosageMg: "500mg", DosageForm: "Tablet"},
	{MedicineName: "Amlodipine", CompanyName: "Lupin", Category: "Antihypertensive", DosageMg: "5mg", DosageForm: "Tablet"},
	{MedicineName: "ORS", CompanyName: "FDC", Category: "Electrolyte", DosageMg: "21.8g/L", DosageForm: "Powder", IsPediatric: 1},
	{MedicineName: "Salbutamol", CompanyName: "Cipla", Category: "Bronchodilator", DosageMg: "100mcg", DosageForm: "Inhaler"},
}
