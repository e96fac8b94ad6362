package chain

// campaignABI Campaign 合约中服务端用到的方法
const campaignABI = `[
	{
		"inputs": [],
		"name": "getCampaignDetails",
		"outputs": [
			{"internalType": "address", "name": "_creator", "type": "address"},
			{"internalType": "uint256", "name": "_minimumContribution", "type": "uint256"},
			{"internalType": "uint256", "name": "_deadline", "type": "uint256"},
			{"internalType": "uint256", "name": "_targetContribution", "type": "uint256"},
			{"internalType": "uint256", "name": "_raisedAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "_contributorsCount", "type": "uint256"},
			{"internalType": "enum Campaign.State", "name": "_state", "type": "uint8"},
			{"internalType": "uint256", "name": "_totalRefunded", "type": "uint256"},
			{"internalType": "uint256", "name": "_refundPeriodEnd", "type": "uint256"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getCampaignSummary",
		"outputs": [
			{"internalType": "uint256", "name": "numBackers", "type": "uint256"},
			{"internalType": "uint256", "name": "currentAmount", "type": "uint256"},
			{"internalType": "uint256", "name": "minContribution", "type": "uint256"},
			{"internalType": "uint256", "name": "campaignDeadline", "type": "uint256"},
			{"internalType": "uint256", "name": "goal", "type": "uint256"},
			{"internalType": "enum Campaign.State", "name": "currentState", "type": "uint8"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "claimRefund",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "withdrawFunds",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

// factoryABI FundChainX 工厂合约
const factoryABI = `[
	{
		"inputs": [],
		"name": "getDeployedCampaigns",
		"outputs": [
			{"internalType": "address[]", "name": "", "type": "address[]"}
		],
		"stateMutability": "view",
		"type": "function"
	}
]`
