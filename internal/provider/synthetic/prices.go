package synthetic

import "wealthprice/internal/symbol"

// basePrices are anchor prices in USD for commonly held instruments.
var basePrices = map[symbol.Symbol]float64{
	"AAPL": 178.35, "MSFT": 335.20, "O": 54.10, "SCHD": 76.45, "BTC": 62000.00, "SHEL": 68.50,
	"ASML": 900.00, "HIMX": 5.50, "JPM": 145.20, "JNJ": 155.00, "PG": 152.50, "TSLA": 240.00,
	"GOOGL": 135.00, "KO": 58.00, "MAIN": 41.50, "PEP": 168.00, "V": 245.00, "NVDA": 460.00,
	"ABBV": 230.00, "VOO": 410.00, "ARWK": 42.00, "PLTR": 17.40, "AMD": 102.33, "COIN": 85.20,
	"AMZN": 145.00, "VUSA": 64.10, "IIPR": 55.00, "SBR": 78.00, "DHT": 11.80, "RMR": 15.60,
	"CVX": 152.00, "XOM": 112.00, "EPD": 27.50, "TGT": 130.00, "WMT": 60.00, "AFL": 85.00,
	"CHD": 98.00, "NEE": 75.00, "CAT": 340.00, "POOL": 360.00, "UFPI": 110.00, "COST": 750.00,
	"TPL": 1600.00, "AWR": 75.00, "KLAC": 680.00, "EQIX": 850.00, "WSO": 420.00, "TTC": 90.00,
	"CRT": 12.00, "FTCO": 6.50, "MDT": 85.00, "PPG": 140.00, "CLX": 150.00, "EBF": 22.00,
	"TXN": 170.00, "ITW": 260.00, "NVO": 125.00, "UPS": 145.00, "TJX": 100.00, "CMI": 280.00,
	"SCCO": 105.00, "HON": 200.00, "MCO": 380.00, "KBH": 65.00, "CRWD": 310.00, "SMCI": 850.00,
	"AMAT": 200.00, "OXLC": 5.00, "CHRD": 170.00, "AZN": 75.00, "TSCO": 250.00, "UNH": 480.00,
	"SPGI": 430.00, "ROK": 280.00, "ROL": 45.00, "EMR": 115.00, "SNA": 285.00, "STLD": 130.00,
	"SBUX": 95.00, "LMT": 450.00, "QCOM": 170.00, "UNP": 240.00, "CNQ": 75.00, "RIO": 65.00,
	"EOG": 120.00, "ADP": 250.00, "CRM": 300.00, "TEAM": 210.00, "WM": 210.00, "MSCI": 550.00,
	"LAMR": 120.00, "ROG": 280.00, "UL": 50.00, "MMM": 95.00, "GILD": 65.00, "MDLZ": 70.00,
	"AOS": 85.00, "ELS": 65.00, "NSP": 60.00, "CMC": 55.00, "BKR": 35.00, "NVS": 100.00,
	"ACN": 360.00, "NDSN": 250.00, "TNC": 95.00, "ECL": 230.00, "CL": 88.00, "SLB": 50.00,
	"KVUE": 20.00, "SHW": 330.00, "NUE": 180.00, "LLY": 780.00, "MED": 35.00, "NKE": 95.00,
	"LPX": 85.00, "OTIS": 95.00, "RMD": 190.00, "HUBB": 380.00, "PBT": 15.00, "RHI": 75.00,
	"PAX": 22.00, "HSY": 195.00, "CTAS": 650.00, "CSX": 35.00, "APLE": 16.00, "CFR": 110.00,
	"ADI": 190.00, "AVY": 210.00, "YOU": 25.00, "LIN": 450.00, "HD": 360.00, "FLO": 24.00,
	"ORCL": 125.00, "HAL": 38.00, "HUBG": 45.00, "GRMN": 160.00, "MAA": 130.00, "TRNO": 62.00,
	"SHOP": 80.00, "APP": 85.00, "SPOT": 280.00, "MRVL": 75.00, "RBLX": 38.00, "CLS": 45.00,
	"PWR": 240.00, "ELF": 180.00, "HEI": 180.00, "FANG": 190.00, "PGR": 200.00, "HPQ": 30.00,
	"TROW": 115.00, "TXRH": 160.00, "EXR": 150.00, "PHM": 115.00, "PSA": 285.00, "WST": 380.00,
	"FAST": 70.00, "DUOL": 220.00, "CROX": 130.00, "MSTR": 1500.00, "OWL": 18.00, "TTD": 85.00,
	"CELH": 65.00, "BMNR": 2.00, "CUBE": 45.00, "PBR/A": 15.00, "ZETA": 30.00, "ABR": 13.00,
	"EQR": 65.00, "RVLV": 22.00, "FR": 52.00, "CNI": 125.00, "CPT": 100.00, "META": 480.00,
	"FCPT": 25.00, "ARM": 130.00, "OGN": 18.00, "UBER": 78.00, "GNK": 24.00, "DHR": 250.00,
	"RSG": 190.00, "JCI": 65.00, "SNY": 50.00, "VNOM": 30.00, "SYK": 350.00, "ATR": 135.00,
	"LII": 500.00, "DDS": 420.00, "TT": 290.00, "ROST": 145.00, "AAON": 85.00, "CHE": 620.00,
	"INTU": 650.00, "MPWR": 720.00, "INSW": 45.00, "NFG": 55.00, "GSK": 42.00, "ETN": 310.00,
	"BBY": 80.00, "KMB": 125.00, "WSM": 280.00, "MSI": 360.00, "CAH": 105.00, "PNR": 80.00,
	"MRK": 128.00, "RS": 320.00, "MSM": 98.00, "THO": 115.00, "RPM": 115.00, "LOW": 230.00,
	"IPAR": 135.00, "ZTS": 170.00, "NTES": 100.00, "EGP": 180.00, "VRT": 85.00, "CSCO": 48.00,
	"NLCP": 18.00, "AGFB": 4.00, "MVIS": 2.50, "ETH": 3000.00, "SOL": 150.00, "DOGE": 0.15,
	"ADA": 0.45, "XRP": 0.55, "DOT": 7.00, "USDT": 1.00, "BNB": 580.00, "MATIC": 0.70,
}
